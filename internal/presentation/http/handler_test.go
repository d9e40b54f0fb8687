package httppresentation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/application/checkout"
	appDashboard "github.com/Zhima-Mochi/merchant-dashboard/internal/application/dashboard"
	domainCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/id"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/memory"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
)

// stubProvider serves both the read and the write side of the provider.
type stubProvider struct {
	configured bool
	txs        []transaction.Transaction
	listErr    error
	orderErr   error
	forwardErr error
}

func (p *stubProvider) Configured() bool { return p.configured }

func (p *stubProvider) ListTransactions(_ context.Context, page, _ int) ([]transaction.Transaction, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	if page > 1 {
		return []transaction.Transaction{}, nil
	}
	return p.txs, nil
}

func (p *stubProvider) ListOrders(context.Context, order.Query) (order.Page, error) {
	return order.Page{Orders: []order.Order{{ID: "or_1", Amount: 2500}}}, nil
}

func (p *stubProvider) ListCustomers(context.Context, int, int) (order.CustomerPage, error) {
	return order.CustomerPage{Customers: []order.Customer{}}, nil
}

func (p *stubProvider) Ping(context.Context) (bool, error) { return true, nil }

func (p *stubProvider) CreateCustomer(_ context.Context, req domainCheckout.CustomerRequest) (domainCheckout.CreatedCustomer, error) {
	return domainCheckout.CreatedCustomer{ID: "cus_1", Name: req.Name}, nil
}

func (p *stubProvider) CreateOrder(context.Context, domainCheckout.OrderRequest) (domainCheckout.CreatedOrder, error) {
	if p.orderErr != nil {
		return domainCheckout.CreatedOrder{}, p.orderErr
	}
	return domainCheckout.CreatedOrder{ID: "or_9", Status: "pending", Amount: 10000, Body: []byte(`{"id":"or_9","status":"pending"}`)}, nil
}

func (p *stubProvider) CreateTransaction(_ context.Context, body []byte) ([]byte, error) {
	if p.forwardErr != nil {
		return nil, p.forwardErr
	}
	return []byte(`{"echo":` + string(body) + `}`), nil
}

func sampleTxs() []transaction.Transaction {
	now := time.Now()
	return []transaction.Transaction{
		{ID: 1, Status: payment.StatusPaid, Amount: 1000, PaymentMethod: payment.MethodPix, DateCreated: now.Add(-time.Hour),
			Customer: transaction.Customer{ID: 10, Name: "Ana", Email: "ana@example.com"}},
		{ID: 2, Status: payment.StatusRefused, Amount: 500, PaymentMethod: payment.MethodCreditCard, DateCreated: now.Add(-2 * time.Hour),
			Customer: transaction.Customer{ID: 20, Name: "Bruno", Email: "bruno@example.com"}},
	}
}

func newTestServer(t *testing.T, p *stubProvider, opts Options) *httptest.Server {
	t.Helper()
	dash := appDashboard.NewService(p, nil, appDashboard.Config{}, nil)
	co := appCheckout.NewPlaceCheckoutUseCase(p, memory.NewCheckoutRepository(), id.NewUUIDGenerator(), nil, nil)
	srv := httptest.NewServer(NewHandler(dash, co, nil, opts).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, Options{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Fatal("request id not generated")
	}
}

func TestTransactionsFilteredPage(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true, txs: sampleTxs()}, Options{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/transactions?status=paid&count=2", nil)
	req.Header.Set(headerRequestID, "req-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get(headerRequestID) != "req-123" {
		t.Errorf("request id not echoed: %q", resp.Header.Get(headerRequestID))
	}
	var page struct {
		Transactions []transaction.Transaction `json:"transactions"`
		HasMore      bool                      `json:"has_more"`
	}
	decodeBody(t, resp, &page)
	if resp.StatusCode != http.StatusOK || len(page.Transactions) != 1 || page.Transactions[0].ID != 1 {
		t.Fatalf("status %d page %+v", resp.StatusCode, page)
	}
	if !page.HasMore {
		t.Error("a full page should report has_more")
	}
}

func TestBadQueryParameters(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})
	for _, path := range []string{
		"/api/transactions?count=abc",
		"/api/transactions?start_date=31/12/2024",
		"/api/sales/daily?days=-1",
		"/api/customers/not-a-number",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var body errorResponse
		decodeBody(t, resp, &body)
		if resp.StatusCode != http.StatusBadRequest || body.Error == "" {
			t.Errorf("%s: status %d body %+v", path, resp.StatusCode, body)
		}
	}
}

func TestNotConfigured(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, Options{})
	for _, path := range []string{"/api/sales", "/api/transactions/summary", "/api/provider/ping"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var body errorResponse
		decodeBody(t, resp, &body)
		if resp.StatusCode != http.StatusServiceUnavailable || body.Error != "Chave da API não configurada" {
			t.Errorf("%s: %d %+v", path, resp.StatusCode, body)
		}
	}
}

func TestProviderFailureIsBadGateway(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true, listErr: errors.New("upstream 500")}, Options{})
	resp, err := http.Get(srv.URL + "/api/sales/summary")
	if err != nil {
		t.Fatal(err)
	}
	var body errorResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadGateway || body.Error != "Erro ao buscar resumo de vendas" {
		t.Fatalf("%d %+v", resp.StatusCode, body)
	}
	if d, _ := body.Details.(string); !strings.Contains(d, "upstream 500") {
		t.Fatalf("details = %v", body.Details)
	}
}

func TestCustomers(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true, txs: sampleTxs()}, Options{})

	resp, err := http.Get(srv.URL + "/api/customers?status=refused")
	if err != nil {
		t.Fatal(err)
	}
	var list appDashboard.CustomersResult
	decodeBody(t, resp, &list)
	if list.Status != payment.StatusRefused || len(list.Customers) != 1 || list.Customers[0].ID != 20 {
		t.Fatalf("customers = %+v", list)
	}

	resp, err = http.Get(srv.URL + "/api/customers/10")
	if err != nil {
		t.Fatal(err)
	}
	var detail transaction.CustomerDetail
	decodeBody(t, resp, &detail)
	if resp.StatusCode != http.StatusOK || detail.Name != "Ana" || detail.PaidCount != 1 {
		t.Fatalf("detail = %d %+v", resp.StatusCode, detail)
	}

	resp, err = http.Get(srv.URL + "/api/customers/999")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing customer status = %d", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})
	resp, err := http.Get(srv.URL + "/api/provider/ping")
	if err != nil {
		t.Fatal(err)
	}
	var body pingResponse
	decodeBody(t, resp, &body)
	if !body.Connected {
		t.Fatal("expected connected")
	}
}

const checkoutBody = `{
	"customer": {"name": "Ana Souza", "email": "ana@example.com", "document": "12345678901", "phone": "11988887777"},
	"billing": {"line_1": "Rua A, 1", "zip_code": "01000000", "city": "São Paulo", "state": "SP"},
	"payment": {"payment_method": "pix"}
}`

func postCheckout(t *testing.T, url, body, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, url+"/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCheckoutReturnsProviderBodyAndReplays(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})

	resp := postCheckout(t, srv.URL, checkoutBody, "abc")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `{"id":"or_9","status":"pending"}` {
		t.Fatalf("checkout = %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get(headerReplayed) != "" {
		t.Fatal("first call marked as replay")
	}

	resp = postCheckout(t, srv.URL, checkoutBody, "abc")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.Header.Get(headerReplayed) != "true" || string(body) != `{"id":"or_9","status":"pending"}` {
		t.Fatalf("replay = %q %s", resp.Header.Get(headerReplayed), body)
	}
}

func TestCheckoutRecordsListedAndFetched(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})
	postCheckout(t, srv.URL, checkoutBody, "list-me").Body.Close()

	resp, err := http.Get(srv.URL + "/api/checkouts?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	var list []checkoutView
	decodeBody(t, resp, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 || list[0].ProviderOrderID != "or_9" || list[0].Amount.String() != "100" {
		t.Fatalf("list = %d %+v", resp.StatusCode, list)
	}

	resp, err = http.Get(srv.URL + "/api/checkouts/" + list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	var one checkoutView
	decodeBody(t, resp, &one)
	if resp.StatusCode != http.StatusOK || one.ID != list[0].ID || one.PaymentMethod != payment.MethodPix {
		t.Fatalf("get = %d %+v", resp.StatusCode, one)
	}

	resp, err = http.Get(srv.URL + "/api/checkouts/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d", resp.StatusCode)
	}
}

func TestCheckoutKeyInProgressConflicts(t *testing.T) {
	p := &stubProvider{configured: true}
	repo := memory.NewCheckoutRepository()
	if err := repo.Insert(context.Background(), domainCheckout.NewReservation("held", "busy", payment.MethodPix, time.Now())); err != nil {
		t.Fatal(err)
	}
	dash := appDashboard.NewService(p, nil, appDashboard.Config{}, nil)
	co := appCheckout.NewPlaceCheckoutUseCase(p, repo, id.NewUUIDGenerator(), nil, nil)
	srv := httptest.NewServer(NewHandler(dash, co, nil, Options{}).Router())
	t.Cleanup(srv.Close)

	resp := postCheckout(t, srv.URL, checkoutBody, "busy")
	var body errorResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusConflict || body.Error != msgCheckoutInProgress {
		t.Fatalf("%d %+v", resp.StatusCode, body)
	}
}

func TestCheckoutValidationDetails(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})
	resp := postCheckout(t, srv.URL, `{"customer":{"name":""},"payment":{"payment_method":"cash"}}`, "")

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadRequest || len(body.Details) < 2 {
		t.Fatalf("%d %+v", resp.StatusCode, body)
	}

	resp = postCheckout(t, srv.URL, `{not json`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", resp.StatusCode)
	}
}

func TestCheckoutProviderFailureHidesDetails(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true, orderErr: errors.New("card number 4111 declined")}, Options{})
	resp := postCheckout(t, srv.URL, checkoutBody, "")
	var body errorResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadGateway || body.Error != "Erro ao processar pagamento" || body.Details != nil {
		t.Fatalf("%d %+v", resp.StatusCode, body)
	}
}

func TestLegacyCreateTransaction(t *testing.T) {
	p := &stubProvider{configured: true}
	srv := newTestServer(t, p, Options{})

	resp, err := http.Post(srv.URL+"/api/transactions", "application/json", strings.NewReader(`{"amount":100}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `{"echo":{"amount":100}}` {
		t.Fatalf("forward = %d %s", resp.StatusCode, body)
	}

	p.forwardErr = errors.New("boom")
	resp, err = http.Post(srv.URL+"/api/transactions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	var eb errorResponse
	decodeBody(t, resp, &eb)
	if resp.StatusCode != http.StatusInternalServerError || !strings.Contains(eb.Error, "boom") {
		t.Fatalf("forward error = %d %+v", resp.StatusCode, eb)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubProvider{configured: true}, Options{})
	resp, err := http.Post(srv.URL+"/api/sales", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, &stubProvider{configured: true}, Options{
		Auth: &BasicAuth{User: "admin", PasswordHash: string(hash)},
	})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health behind auth: %d", resp.StatusCode)
	}

	tests := []struct {
		user, pass string
		want       int
	}{
		{"", "", http.StatusUnauthorized},
		{"admin", "wrong", http.StatusUnauthorized},
		{"other", "s3cret", http.StatusUnauthorized},
		{"admin", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/provider/ping", nil)
		if tt.user != "" {
			req.SetBasicAuth(tt.user, tt.pass)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s/%s: status %d, want %d", tt.user, tt.pass, resp.StatusCode, tt.want)
		}
		if tt.want == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
			t.Errorf("%s/%s: missing challenge", tt.user, tt.pass)
		}
	}
}

type panickingDashboard struct{ Dashboard }

func (panickingDashboard) Location() *time.Location { return time.UTC }

func (panickingDashboard) Sales(context.Context) (order.Sales, error) { panic("boom") }

func TestRecoveryAndMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics")
	})
	h := NewHandler(panickingDashboard{}, nil, nil, Options{Metrics: metrics})
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sales")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("panic status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "# metrics" {
		t.Fatalf("metrics body = %q", body)
	}
}
