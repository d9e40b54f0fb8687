package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

var (
	ErrNotFound = errors.New("checkout: record not found")
	ErrConflict = errors.New("checkout: record already exists")

	// ErrInProgress reports an idempotency key held by a checkout that has not finished.
	ErrInProgress = errors.New("checkout: idempotency key in progress")
)

// StatusReserved marks a record whose provider order has not been placed yet.
const StatusReserved = "reserved"

// Record is the local trace of one order placed with the provider.
type Record struct {
	ID              string
	IdempotencyKey  string
	ProviderOrderID string
	CustomerID      string
	Status          string
	PaymentMethod   payment.Method
	Amount          money.Cents
	CreatedAt       time.Time
	// Response is the provider's order body as it was returned to the caller.
	Response []byte
}

// NewReservation claims idempotencyKey ahead of the provider calls.
func NewReservation(id, idempotencyKey string, method payment.Method, now time.Time) *Record {
	return &Record{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		Status:         StatusReserved,
		PaymentMethod:  method,
		CreatedAt:      now.UTC(),
	}
}

// Reserved reports whether the provider order is still pending placement.
func (r *Record) Reserved() bool { return r.ProviderOrderID == "" }

// NewRecord captures a placed order.
func NewRecord(id, idempotencyKey, customerID string, method payment.Method, created CreatedOrder, now time.Time) (*Record, error) {
	if id == "" {
		return nil, errors.New("checkout: record id is required")
	}
	if created.ID == "" {
		return nil, errors.New("checkout: provider order id is required")
	}
	return &Record{
		ID:              id,
		IdempotencyKey:  idempotencyKey,
		ProviderOrderID: created.ID,
		CustomerID:      customerID,
		Status:          created.Status,
		PaymentMethod:   method,
		Amount:          created.Amount,
		CreatedAt:       now.UTC(),
		Response:        append([]byte(nil), created.Body...),
	}, nil
}

type Repository interface {
	// Insert fails with ErrConflict when the id or the idempotency key is already taken.
	Insert(ctx context.Context, r *Record) error
	// Complete replaces the reservation with the same id by the placed record.
	Complete(ctx context.Context, r *Record) error
	// Release drops the reservation with id. Placed records are kept.
	Release(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Record, error)
	FindByIdempotency(ctx context.Context, key string) (*Record, error)
	List(ctx context.Context, limit int) ([]*Record, error)
}
