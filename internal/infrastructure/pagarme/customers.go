package pagarme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/goccy/go-json"
)

// ListCustomers fetches one page of v5 customers.
func (c *Client) ListCustomers(ctx context.Context, page, size int) (order.CustomerPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	raw, err := c.do(ctx, call{
		endpoint: "v5.customers.list",
		method:   http.MethodGet,
		base:     c.v5,
		path:     "/customers",
		query:    q,
		auth:     authBasic,
	})
	if err != nil {
		return order.CustomerPage{}, err
	}
	var env envelope[order.Customer]
	if err := json.Unmarshal(raw, &env); err != nil {
		return order.CustomerPage{}, fmt.Errorf("%w: customers: %w", ErrDecode, err)
	}
	if env.Data == nil {
		env.Data = []order.Customer{}
	}
	return order.CustomerPage{Customers: env.Data, Paging: env.Paging}, nil
}

func (c *Client) CreateCustomer(ctx context.Context, req checkout.CustomerRequest) (checkout.CreatedCustomer, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return checkout.CreatedCustomer{}, fmt.Errorf("pagarme: encode customer: %w", err)
	}
	raw, err := c.do(ctx, call{
		endpoint: "v5.customers.create",
		method:   http.MethodPost,
		base:     c.v5,
		path:     "/customers",
		auth:     authBasic,
		body:     body,
	})
	if err != nil {
		return checkout.CreatedCustomer{}, err
	}
	var created checkout.CreatedCustomer
	if err := json.Unmarshal(raw, &created); err != nil {
		return checkout.CreatedCustomer{}, fmt.Errorf("%w: created customer: %w", ErrDecode, err)
	}
	if created.ID == "" {
		return checkout.CreatedCustomer{}, fmt.Errorf("%w: created customer has no id", ErrDecode)
	}
	return created, nil
}
