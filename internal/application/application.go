// Package application holds what the use case packages share.
package application

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Outcome is the outcome label for a use case that returned err. Context
// cancellation and deadlines count apart from failures.
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeCanceled
	default:
		return observability.OutcomeError
	}
}
