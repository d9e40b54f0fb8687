package httppresentation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/application/checkout"
	appDashboard "github.com/Zhima-Mochi/merchant-dashboard/internal/application/dashboard"
	domainCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Dashboard is the read side the handler serves.
type Dashboard interface {
	Location() *time.Location
	Transactions(ctx context.Context, q appDashboard.TransactionsQuery) (appDashboard.TransactionPage, error)
	TransactionsSummary(ctx context.Context, f transaction.Filters) (transaction.Summary, error)
	DailySales(ctx context.Context, days int) ([]transaction.DailyPoint, error)
	SalesSummary(ctx context.Context) (transaction.SalesSummary, error)
	Sales(ctx context.Context) (order.Sales, error)
	DailyOrders(ctx context.Context, days int) ([]order.DailyPoint, error)
	Customers(ctx context.Context, status payment.Status, search string) (appDashboard.CustomersResult, error)
	Customer(ctx context.Context, id int64) (transaction.CustomerDetail, error)
	Ping(ctx context.Context) (bool, error)
	Sample(ctx context.Context) (appDashboard.Sample, error)
}

type Checkout interface {
	Execute(ctx context.Context, cmd appCheckout.Input) (*appCheckout.Result, error)
	ForwardTransaction(ctx context.Context, body []byte) ([]byte, error)
	Recent(ctx context.Context, limit int) ([]*domainCheckout.Record, error)
	Record(ctx context.Context, id string) (*domainCheckout.Record, error)
}

type Handler struct {
	dashboard Dashboard
	checkout  Checkout
	metrics   http.Handler
	auth      *BasicAuth
	log       observability.Logger

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"

	maxBodyBytes = 1 << 20
)

type Options struct {
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Auth protects the /api routes when set.
	Auth *BasicAuth
}

func NewHandler(dash Dashboard, co Checkout, tel observability.Observability, opts Options) *Handler {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &Handler{
		dashboard:    dash,
		checkout:     co,
		metrics:      opts.Metrics,
		auth:         opts.Auth,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   m.Counter(observability.MHTTPRequests),
		durHistogram: m.Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth, false)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	h.muxHandle(mux, http.MethodGet, "/api/transactions", h.handleTransactions, true)
	h.muxHandle(mux, http.MethodPost, "/api/transactions", h.handleCreateTransaction, true)
	h.muxHandle(mux, http.MethodGet, "/api/transactions/summary", h.handleTransactionsSummary, true)
	h.muxHandle(mux, http.MethodGet, "/api/sales", h.handleSales, true)
	h.muxHandle(mux, http.MethodGet, "/api/sales/daily", h.handleDailySales, true)
	h.muxHandle(mux, http.MethodGet, "/api/sales/summary", h.handleSalesSummary, true)
	h.muxHandle(mux, http.MethodGet, "/api/orders/daily", h.handleDailyOrders, true)
	h.muxHandle(mux, http.MethodGet, "/api/customers", h.handleCustomers, true)
	h.muxHandle(mux, http.MethodGet, "/api/customers/{id}", h.handleCustomer, true)
	h.muxHandle(mux, http.MethodGet, "/api/provider/ping", h.handlePing, true)
	h.muxHandle(mux, http.MethodGet, "/api/provider/sample", h.handleSample, true)
	h.muxHandle(mux, http.MethodPost, "/api/checkout", h.handleCheckout, true)
	h.muxHandle(mux, http.MethodGet, "/api/checkouts", h.handleRecentCheckouts, true)
	h.muxHandle(mux, http.MethodGet, "/api/checkouts/{id}", h.handleCheckoutRecord, true)

	return mux
}

// muxHandle registers method+route wrapped as
// Trace → Request Logger → Access Log → Metrics → Recovery → Auth → Handler.
func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc, protected bool) {
	pattern := method + " " + route
	var inner http.Handler = handler
	if protected {
		inner = h.withAuth(inner)
	}
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
		)(
			h.withAccessLog(
				h.withHTTPMetrics(
					h.withRecovery(inner),
				),
			),
		),
	)
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) filters(r *http.Request) (transaction.Filters, error) {
	q := r.URL.Query()
	loc := h.dashboard.Location()
	start, err := transaction.ParseDate(q.Get("start_date"), loc)
	if err != nil {
		return transaction.Filters{}, badRequest("start_date", err)
	}
	end, err := transaction.ParseDate(q.Get("end_date"), loc)
	if err != nil {
		return transaction.Filters{}, badRequest("end_date", err)
	}
	return transaction.Filters{
		Status:        strings.TrimSpace(q.Get("status")),
		PaymentMethod: strings.TrimSpace(q.Get("payment_method")),
		StartDate:     start,
		EndDate:       end,
		Search:        strings.TrimSpace(q.Get("search")),
	}, nil
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := h.filters(r)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	count, err := intParam(r, "count", appDashboard.DefaultCount)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}

	res, err := h.dashboard.Transactions(r.Context(), appDashboard.TransactionsQuery{Page: page, Count: count, Filters: f})
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar transações")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleTransactionsSummary(w http.ResponseWriter, r *http.Request) {
	f, err := h.filters(r)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	sum, err := h.dashboard.TransactionsSummary(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar resumo de transações")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleCreateTransaction forwards the body untouched to the legacy transactions API.
func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Corpo da requisição inválido", err.Error())
		return
	}
	out, err := h.checkout.ForwardTransaction(r.Context(), body)
	if err != nil {
		if errors.Is(err, appCheckout.ErrNotConfigured) {
			writeDomainError(w, r, err, "")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeRaw(w, http.StatusOK, out)
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.dashboard.Sales(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar total de vendas")
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) handleDailySales(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", appDashboard.DefaultDailyDays)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	points, err := h.dashboard.DailySales(r.Context(), days)
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar vendas diárias")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.dashboard.SalesSummary(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar resumo de vendas")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) handleDailyOrders(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", appDashboard.DefaultDailyDays)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	points, err := h.dashboard.DailyOrders(r.Context(), days)
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar pedidos diários")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.dashboard.Customers(r.Context(),
		payment.Status(strings.TrimSpace(q.Get("status"))),
		strings.TrimSpace(q.Get("search")),
	)
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar clientes")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDomainError(w, r, badRequest("id", err), "")
		return
	}
	detail, err := h.dashboard.Customer(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar cliente")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type pingResponse struct {
	Connected bool `json:"connected"`
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	ok, err := h.dashboard.Ping(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Erro ao conectar ao provedor")
		return
	}
	writeJSON(w, http.StatusOK, pingResponse{Connected: ok})
}

func (h *Handler) handleSample(w http.ResponseWriter, r *http.Request) {
	sample, err := h.dashboard.Sample(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "Erro ao buscar dados de teste")
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domainCheckout.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Corpo da requisição inválido", err.Error())
		return
	}

	res, err := h.checkout.Execute(r.Context(), appCheckout.Input{
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
		Request:        req,
	})
	if err != nil {
		writeDomainError(w, r, err, appCheckout.ProviderFailureMessage)
		return
	}
	if res.Replayed {
		w.Header().Set(headerReplayed, "true")
	}
	writeRaw(w, http.StatusOK, res.Body)
}

// checkoutView is a stored checkout without the provider body.
type checkoutView struct {
	ID              string          `json:"id"`
	ProviderOrderID string          `json:"provider_order_id,omitempty"`
	CustomerID      string          `json:"customer_id,omitempty"`
	Status          string          `json:"status"`
	PaymentMethod   payment.Method  `json:"payment_method"`
	Amount          decimal.Decimal `json:"amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newCheckoutView(rec *domainCheckout.Record) checkoutView {
	return checkoutView{
		ID:              rec.ID,
		ProviderOrderID: rec.ProviderOrderID,
		CustomerID:      rec.CustomerID,
		Status:          rec.Status,
		PaymentMethod:   rec.PaymentMethod,
		Amount:          rec.Amount.Reais(),
		CreatedAt:       rec.CreatedAt,
	}
}

func (h *Handler) handleRecentCheckouts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", appCheckout.DefaultRecentLimit)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	recs, err := h.checkout.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	out := make([]checkoutView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newCheckoutView(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCheckoutRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.checkout.Record(r.Context(), r.PathValue("id"))
	if errors.Is(err, appCheckout.ErrRecordNotFound) {
		writeMessage(w, http.StatusNotFound, msgCheckoutNotFound, "")
		return
	}
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(rec))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest(name, errors.New("must be a positive integer"))
	}
	return n, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

type routeKey struct{}

// contextWithRoute stores the route pattern so metrics and logs keep low-cardinality labels.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

// logFailure records a request that ended in a server-side error.
func logFailure(r *http.Request, status int, err error) {
	logctx.FromOr(r.Context(), nil).Warn("http_request_failed",
		observability.F("route", routeFromContext(r.Context())),
		observability.F("status", status),
		observability.F("error", err.Error()),
	)
}
