package pagarme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/goccy/go-json"
)

// ListTransactions fetches one page of v1 transactions.
func (c *Client) ListTransactions(ctx context.Context, page, count int) ([]transaction.Transaction, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	raw, err := c.do(ctx, call{
		endpoint: "v1.transactions.list",
		method:   http.MethodGet,
		base:     c.v1,
		path:     "/transactions",
		query:    q,
		auth:     authQuery,
	})
	if err != nil {
		return nil, err
	}

	var txs []transaction.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, fmt.Errorf("%w: transactions: %w", ErrDecode, err)
	}
	if txs == nil {
		txs = []transaction.Transaction{}
	}
	return txs, nil
}

// CreateTransaction forwards body to the v1 transactions endpoint untouched and
// returns the provider's answer as is.
func (c *Client) CreateTransaction(ctx context.Context, body []byte) ([]byte, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}
	return c.do(ctx, call{
		endpoint: "v1.transactions.create",
		method:   http.MethodPost,
		base:     c.v1,
		path:     "/transactions",
		auth:     authQuery,
		body:     body,
	})
}

// Ping reports whether the v1 API answers a one-transaction listing with a JSON array.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	raw, err := c.do(ctx, call{
		endpoint: "v1.transactions.ping",
		method:   http.MethodGet,
		base:     c.v1,
		path:     "/transactions",
		query:    url.Values{"count": {"1"}},
		auth:     authQuery,
	})
	if err != nil {
		return false, err
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, nil
	}
	return true, nil
}
