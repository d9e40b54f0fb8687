package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
)

// CheckoutRepository keeps checkout records for the lifetime of the process.
type CheckoutRepository struct {
	mu          sync.RWMutex
	records     map[string]*domain.Record
	idempotency map[string]string
}

func NewCheckoutRepository() *CheckoutRepository {
	return &CheckoutRepository{
		records:     make(map[string]*domain.Record),
		idempotency: make(map[string]string),
	}
}

func (r *CheckoutRepository) Insert(ctx context.Context, rec *domain.Record) error {
	_ = ctx
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("checkout repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return domain.ErrConflict
	}
	if key := rec.IdempotencyKey; key != "" {
		if _, exists := r.idempotency[key]; exists {
			return domain.ErrConflict
		}
		r.idempotency[key] = rec.ID
	}
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *CheckoutRepository) Complete(ctx context.Context, rec *domain.Record) error {
	_ = ctx
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("checkout repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.IdempotencyKey != rec.IdempotencyKey {
		return domain.ErrConflict
	}
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *CheckoutRepository) Release(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || !rec.Reserved() {
		return nil
	}
	delete(r.records, id)
	if rec.IdempotencyKey != "" {
		delete(r.idempotency, rec.IdempotencyKey)
	}
	return nil
}

func (r *CheckoutRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *CheckoutRepository) FindByIdempotency(ctx context.Context, key string) (*domain.Record, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idempotency[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// List returns up to limit records, newest first. A non-positive limit returns all.
func (r *CheckoutRepository) List(ctx context.Context, limit int) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	out := make([]*domain.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, cloneRecord(rec))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(rec *domain.Record) *domain.Record {
	if rec == nil {
		return nil
	}
	clone := *rec
	clone.Response = append([]byte(nil), rec.Response...)
	return &clone
}
