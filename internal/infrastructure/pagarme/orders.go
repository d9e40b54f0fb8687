package pagarme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/goccy/go-json"
)

func orderValues(q order.Query) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if !q.CreatedSince.IsZero() {
		v.Set("created_since", q.CreatedSince.UTC().Format(time.RFC3339))
	}
	if !q.CreatedUntil.IsZero() {
		v.Set("created_until", q.CreatedUntil.UTC().Format(time.RFC3339))
	}
	return v
}

type envelope[T any] struct {
	Data   []T          `json:"data"`
	Paging order.Paging `json:"paging"`
}

// ListOrders fetches one page of v5 orders.
func (c *Client) ListOrders(ctx context.Context, q order.Query) (order.Page, error) {
	raw, err := c.do(ctx, call{
		endpoint: "v5.orders.list",
		method:   http.MethodGet,
		base:     c.v5,
		path:     "/orders",
		query:    orderValues(q),
		auth:     authBasic,
	})
	if err != nil {
		return order.Page{}, err
	}
	var env envelope[order.Order]
	if err := json.Unmarshal(raw, &env); err != nil {
		return order.Page{}, fmt.Errorf("%w: orders: %w", ErrDecode, err)
	}
	if env.Data == nil {
		env.Data = []order.Order{}
	}
	return order.Page{Orders: env.Data, Paging: env.Paging}, nil
}

// CreateOrder posts an order and keeps the provider's body for the caller.
func (c *Client) CreateOrder(ctx context.Context, req checkout.OrderRequest) (checkout.CreatedOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return checkout.CreatedOrder{}, fmt.Errorf("pagarme: encode order: %w", err)
	}
	raw, err := c.do(ctx, call{
		endpoint: "v5.orders.create",
		method:   http.MethodPost,
		base:     c.v5,
		path:     "/orders",
		auth:     authBasic,
		body:     body,
	})
	if err != nil {
		return checkout.CreatedOrder{}, err
	}

	var head struct {
		ID     string      `json:"id"`
		Status string      `json:"status"`
		Amount money.Cents `json:"amount"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return checkout.CreatedOrder{}, fmt.Errorf("%w: created order: %w", ErrDecode, err)
	}
	return checkout.CreatedOrder{
		ID:     head.ID,
		Status: head.Status,
		Amount: head.Amount,
		Body:   raw,
	}, nil
}
