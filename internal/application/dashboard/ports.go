package dashboard

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
)

// Provider is the read side of the payment provider.
type Provider interface {
	Configured() bool
	ListTransactions(ctx context.Context, page, count int) ([]transaction.Transaction, error)
	ListOrders(ctx context.Context, q order.Query) (order.Page, error)
	ListCustomers(ctx context.Context, page, size int) (order.CustomerPage, error)
	Ping(ctx context.Context) (bool, error)
}

// Cache stores encoded provider responses. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops keys starting with prefix; "" drops everything.
	Invalidate(ctx context.Context, prefix string) error
}
