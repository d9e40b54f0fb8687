package checkout

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultRecentLimit is how many records Recent returns when limit is not positive.
	DefaultRecentLimit = 20
	maxRecentLimit     = 200
)

var ErrRecordNotFound = domain.ErrNotFound

// Recent returns the newest checkout records, reservations included.
func (uc *PlaceCheckoutUseCase) Recent(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"RecentCheckouts", attribute.Int("limit", limit))
	defer span.End()

	recs, err := uc.repo.List(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return recs, nil
}

// Record looks up one checkout record by id.
func (uc *PlaceCheckoutUseCase) Record(ctx context.Context, id string) (*domain.Record, error) {
	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"GetCheckout", attribute.String("checkout.record_id", id))
	defer span.End()

	rec, err := uc.repo.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, ErrRecordNotFound
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "GET_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return rec, nil
}
