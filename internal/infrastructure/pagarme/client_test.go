package pagarme

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey: "ak_test_123",
		V1URL:  srv.URL + "/1",
		V5URL:  srv.URL + "/core/v5",
	}, nil)
}

func TestListTransactionsSendsKeyAndPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/transactions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "ak_test_123" || q.Get("page") != "2" || q.Get("count") != "50" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"id":42,"status":"paid","amount":1500,"payment_method":"pix",
			"date_created":"2024-03-07T10:00:00.000Z","customer":{"id":7,"name":"Ana"},"items":[]}]`)
	})

	txs, err := c.ListTransactions(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len = %d", len(txs))
	}
	tx := txs[0]
	if tx.ID != 42 || tx.Status != payment.StatusPaid || tx.Amount != 1500 || tx.Customer.Name != "Ana" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if !tx.DateCreated.Equal(time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("date_created = %v", tx.DateCreated)
	}
}

func TestListTransactionsEmptyArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	txs, err := c.ListTransactions(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", txs)
	}
}

func TestProviderErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = io.WriteString(w, `{"message":"nope"}`)
		})
		_, err := c.ListTransactions(context.Background(), 1, 1)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		var pe *ProviderError
		if !errors.As(err, &pe) || pe.StatusCode != tt.status || !strings.Contains(pe.Body, "nope") {
			t.Errorf("status %d: provider error = %+v", tt.status, pe)
		}
	}
}

func TestServerErrorIsNotUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.ListOrders(context.Background(), order.Query{Page: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		t.Fatalf("500 matched a sentinel: %v", err)
	}
}

func TestMissingKeyNeverCallsProvider(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	c := New(Config{V1URL: srv.URL}, nil)
	if c.Configured() {
		t.Fatal("client without key reports configured")
	}
	if _, err := c.ListTransactions(context.Background(), 1, 1); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Fatal("provider was called without a key")
	}
}

func TestListOrdersUsesBasicAuthAndEnvelope(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("ak_test_123:"))
		if got := r.Header.Get("Authorization"); got != want {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("api_key") != "" {
			t.Error("v5 request leaked api_key in query")
		}
		if r.URL.Query().Get("created_since") != "2024-03-01T00:00:00Z" || r.URL.Query().Get("size") != "100" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"or_1","code":"A1","amount":2500,"status":"paid",
			"created_at":"2024-03-02T12:00:00Z","updated_at":"2024-03-02T12:00:00Z","items":[],"charges":[]}],
			"paging":{"total":1}}`)
	})

	page, err := c.ListOrders(context.Background(), order.Query{Page: 1, Size: 100, CreatedSince: since})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(page.Orders) != 1 || page.Orders[0].ID != "or_1" || page.Orders[0].Amount != 2500 {
		t.Fatalf("orders = %+v", page.Orders)
	}
	if page.Paging.Total != 1 {
		t.Fatalf("paging = %+v", page.Paging)
	}
}

func TestCreateCustomerAndOrder(t *testing.T) {
	var orderBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/core/v5/customers":
			if !strings.Contains(string(b), `"type":"individual"`) {
				t.Errorf("customer body = %s", b)
			}
			_, _ = io.WriteString(w, `{"id":"cus_1","name":"Ana"}`)
		case "/core/v5/orders":
			orderBody = string(b)
			_, _ = io.WriteString(w, `{"id":"or_9","status":"pending","amount":10000,"charges":[{"id":"ch_1"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	req := checkout.Request{
		Customer: checkout.CustomerInput{Name: "Ana", Email: "ana@example.com", Document: "12345678901", Phone: "11999998888"},
		Payment:  checkout.PaymentInput{PaymentMethod: payment.MethodPix},
	}
	req.Normalize()

	cus, err := c.CreateCustomer(context.Background(), req.CustomerRequest())
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if cus.ID != "cus_1" {
		t.Fatalf("customer id = %q", cus.ID)
	}

	created, err := c.CreateOrder(context.Background(), req.OrderRequest(cus.ID, checkout.DefaultProduct(), time.Now()))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if created.ID != "or_9" || created.Status != "pending" || created.Amount != 10000 {
		t.Fatalf("created = %+v", created)
	}
	if !strings.Contains(string(created.Body), `"charges":[{"id":"ch_1"}]`) {
		t.Fatalf("raw body not kept: %s", created.Body)
	}
	if !strings.Contains(orderBody, `"customer_id":"cus_1"`) || !strings.Contains(orderBody, `"expires_in":3600`) {
		t.Fatalf("order body = %s", orderBody)
	}
}

func TestCreateTransactionForwardsBodyVerbatim(t *testing.T) {
	payload := `{"amount":100,"payment_method":"boleto"}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != payload {
			t.Errorf("body = %s", b)
		}
		if r.URL.Query().Get("api_key") != "ak_test_123" {
			t.Errorf("api_key missing")
		}
		_, _ = io.WriteString(w, `{"id":1,"status":"waiting_payment"}`)
	})
	out, err := c.CreateTransaction(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if string(out) != `{"id":1,"status":"waiting_payment"}` {
		t.Fatalf("response = %s", out)
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"array", `[]`, true},
		{"object", `{"errors":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("count") != "1" {
					t.Errorf("count = %q", r.URL.Query().Get("count"))
				}
				_, _ = io.WriteString(w, tt.body)
			})
			ok, err := c.Ping(context.Background())
			if err != nil {
				t.Fatalf("Ping: %v", err)
			}
			if ok != tt.want {
				t.Fatalf("Ping = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New(Config{APIKey: "ak_test_secret", V1URL: base + "/1", V5URL: base + "/core/v5", Timeout: time.Second}, nil)
	_, err := c.ListTransactions(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if strings.Contains(err.Error(), "ak_test_secret") {
		t.Fatalf("error leaks the api key: %v", err)
	}
	if !strings.Contains(err.Error(), "v1.transactions") {
		t.Errorf("error lost the endpoint: %v", err)
	}
}
