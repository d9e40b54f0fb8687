package checkout

import (
	"context"

	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
)

type IDGenerator interface {
	NewID() string
}

// Provider is the write side of the payment provider.
type Provider interface {
	Configured() bool
	CreateCustomer(ctx context.Context, req domain.CustomerRequest) (domain.CreatedCustomer, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.CreatedOrder, error)
	CreateTransaction(ctx context.Context, body []byte) ([]byte, error)
}

// CacheInvalidator forgets cached provider reads.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
