// Package dashboard answers the dashboard's read queries: it pulls pages from the
// provider, caches them and runs the domain aggregations over what was loaded.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	"github.com/goccy/go-json"

	"go.opentelemetry.io/otel/attribute"
)

const (
	dashboardService = "dashboard-service"

	DefaultCount      = 100
	DefaultDailyDays  = 7
	DailyOrdersSize   = 100
	SampleSize        = 10
	SampleWindowDays  = 30
	defaultPageSize   = 1000
	keyTransactions   = "transactions:"
	keyOrders         = "orders:"
	cacheWriteTimeout = 500 * time.Millisecond
)

var (
	ErrNotConfigured    = errors.New("dashboard: provider api key not configured")
	ErrProvider         = errors.New("dashboard: provider failure")
	ErrCustomerNotFound = transaction.ErrCustomerNotFound
)

type Config struct {
	// PageSize is the count requested per page when loading transactions for aggregates.
	PageSize int
	// MaxPages bounds how many pages aggregates load.
	MaxPages int
	CacheTTL time.Duration
	// CacheBackend labels cache metrics.
	CacheBackend string
	Location     *time.Location
	Now          func() time.Time
}

type Service struct {
	provider Provider
	cache    Cache
	cfg      Config
	tel      observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	cacheCounter observability.Counter   // cache_lookups_total{backend,result}
}

// NewService wires the query service. cache may be nil to always hit the provider.
func NewService(provider Provider, cache Cache, cfg Config, tel observability.Observability) *Service {
	tel = observability.Or(tel)
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "none"
	}
	m := tel.Metrics()
	return &Service{
		provider:     provider,
		cache:        cache,
		cfg:          cfg,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", dashboardService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		cacheCounter: m.Counter(observability.MCacheLookups),
	}
}

func (s *Service) Location() *time.Location { return s.cfg.Location }

func (s *Service) ready() error {
	if s.provider == nil || !s.provider.Configured() {
		return ErrNotConfigured
	}
	return nil
}

func providerError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}

// cached serves key from the cache, or loads, stores and returns it. Cache failures
// are logged and never fail the read.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	logger := logctx.FromOr(ctx, s.log)
	if s.cache != nil && s.cfg.CacheTTL > 0 {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.countCache(observability.OutcomeError)
			logger.Warn("cache_get_failed", observability.F("key", key), observability.F("error", err))
		case ok:
			var v T
			if uerr := json.Unmarshal(raw, &v); uerr == nil {
				s.countCache("hit")
				return v, nil
			}
			s.countCache(observability.OutcomeError)
			logger.Warn("cache_entry_corrupt", observability.F("key", key))
		default:
			s.countCache("miss")
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if raw, merr := json.Marshal(v); merr == nil {
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
			if serr := s.cache.Set(wctx, key, raw, s.cfg.CacheTTL); serr != nil {
				logger.Warn("cache_set_failed", observability.F("key", key), observability.F("error", serr))
			}
			cancel()
		}
	}
	return v, nil
}

func (s *Service) countCache(result string) {
	s.cacheCounter.Add(1,
		observability.L("backend", s.cfg.CacheBackend),
		observability.L("result", result),
	)
}

// Invalidate forgets every cached provider response.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, ""); err != nil {
		return fmt.Errorf("dashboard: invalidate cache: %w", err)
	}
	return nil
}

func (s *Service) transactionsPage(ctx context.Context, page, count int) ([]transaction.Transaction, error) {
	key := keyTransactions + strconv.Itoa(page) + ":" + strconv.Itoa(count)
	return cached(ctx, s, key, func(ctx context.Context) ([]transaction.Transaction, error) {
		txs, err := s.provider.ListTransactions(ctx, page, count)
		return txs, providerError(err)
	})
}

// loadTransactions pulls pages one after another while the last page came back full,
// up to MaxPages, and returns the union newest first.
func (s *Service) loadTransactions(ctx context.Context) ([]transaction.Transaction, error) {
	var loaded []transaction.Transaction
	for page := 1; page <= s.cfg.MaxPages; page++ {
		batch, err := s.transactionsPage(ctx, page, s.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		loaded = transaction.Merge(loaded, batch)
		if len(batch) < s.cfg.PageSize {
			break
		}
	}
	if loaded == nil {
		loaded = []transaction.Transaction{}
	}
	return loaded, nil
}

func (s *Service) orders(ctx context.Context, q order.Query) (order.Page, error) {
	key := keyOrders + strconv.Itoa(q.Page) + ":" + strconv.Itoa(q.Size) + ":" +
		windowKey(q.CreatedSince) + ":" + windowKey(q.CreatedUntil)
	return cached(ctx, s, key, func(ctx context.Context) (order.Page, error) {
		p, err := s.provider.ListOrders(ctx, q)
		return p, providerError(err)
	})
}

// windowKey coarsens window bounds to the minute so rolling windows still share entries.
func windowKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Truncate(time.Minute).Format("200601021504")
}

type TransactionsQuery struct {
	Page    int
	Count   int
	Filters transaction.Filters
}

type TransactionPage struct {
	Transactions []transaction.Transaction `json:"transactions"`
	Page         int                       `json:"page"`
	Count        int                       `json:"count"`
	// HasMore is true when the provider filled the page, so another may exist.
	HasMore bool `json:"has_more"`
}

// Transactions returns one provider page, filtered and newest first.
func (s *Service) Transactions(ctx context.Context, q TransactionsQuery) (_ TransactionPage, err error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Count < 1 {
		q.Count = DefaultCount
	}
	ctx, r := s.begin(ctx, "dashboard.transactions", "Transactions",
		attribute.Int("page", q.Page), attribute.Int("count", q.Count))
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return TransactionPage{}, err
	}
	raw, err := s.transactionsPage(ctx, q.Page, q.Count)
	if err != nil {
		return TransactionPage{}, err
	}
	out := transaction.Filter(raw, q.Filters)
	transaction.SortByNewest(out)
	r.note("loaded", len(raw))
	r.note("matched", len(out))
	return TransactionPage{
		Transactions: out,
		Page:         q.Page,
		Count:        q.Count,
		HasMore:      len(raw) == q.Count,
	}, nil
}

// TransactionsSummary aggregates every loaded transaction matching f.
func (s *Service) TransactionsSummary(ctx context.Context, f transaction.Filters) (_ transaction.Summary, err error) {
	ctx, r := s.begin(ctx, "dashboard.transactions_summary", "TransactionsSummary")
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return transaction.Summary{}, err
	}
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return transaction.Summary{}, err
	}
	r.note("loaded", len(txs))
	return transaction.Summarize(transaction.Filter(txs, f)), nil
}

func (s *Service) DailySales(ctx context.Context, days int) (_ []transaction.DailyPoint, err error) {
	if days < 1 {
		days = DefaultDailyDays
	}
	ctx, r := s.begin(ctx, "dashboard.daily_sales", "DailySales", attribute.Int("days", days))
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return nil, err
	}
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return transaction.DailySales(txs, s.cfg.Now(), days, s.cfg.Location), nil
}

func (s *Service) SalesSummary(ctx context.Context) (_ transaction.SalesSummary, err error) {
	ctx, r := s.begin(ctx, "dashboard.sales_summary", "SalesSummary")
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return transaction.SalesSummary{}, err
	}
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return transaction.SalesSummary{}, err
	}
	return transaction.CompareSales(txs, s.cfg.Now()), nil
}

// Sales totals the provider's default order listing.
func (s *Service) Sales(ctx context.Context) (_ order.Sales, err error) {
	ctx, r := s.begin(ctx, "dashboard.sales", "Sales")
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return order.Sales{}, err
	}
	page, err := s.orders(ctx, order.Query{})
	if err != nil {
		return order.Sales{}, err
	}
	r.note("orders", len(page.Orders))
	return order.SalesTotals(page.Orders, s.cfg.Location), nil
}

// DailyOrders charts the first page of orders created in the last days.
func (s *Service) DailyOrders(ctx context.Context, days int) (_ []order.DailyPoint, err error) {
	if days < 1 {
		days = DefaultDailyDays
	}
	ctx, r := s.begin(ctx, "dashboard.daily_orders", "DailyOrders", attribute.Int("days", days))
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return nil, err
	}
	now := s.cfg.Now()
	page, err := s.orders(ctx, order.Query{
		Page:         1,
		Size:         DailyOrdersSize,
		CreatedSince: now.AddDate(0, 0, -days),
		CreatedUntil: now,
	})
	if err != nil {
		return nil, err
	}
	return order.DailyTotals(page.Orders, s.cfg.Location), nil
}

type CustomerSummary struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	DocumentNumber string                  `json:"document_number"`
	PhoneNumbers   []string                `json:"phone_numbers"`
	Stats          transaction.StatusStats `json:"stats"`
}

type CustomersResult struct {
	Status    payment.Status         `json:"status"`
	Customers []CustomerSummary      `json:"customers"`
	Counts    map[payment.Status]int `json:"counts"`
}

// Customers lists the customers with at least one transaction in status (default paid),
// narrowed by search, with that status's stats. Counts covers every bucket before search.
func (s *Service) Customers(ctx context.Context, status payment.Status, search string) (_ CustomersResult, err error) {
	if status == "" {
		status = payment.StatusPaid
	}
	ctx, r := s.begin(ctx, "dashboard.customers", "Customers", attribute.String("status", string(status)))
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return CustomersResult{}, err
	}
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return CustomersResult{}, err
	}

	groups := transaction.GroupByCustomer(txs)
	buckets := transaction.BucketByStatus(groups)
	counts := make(map[payment.Status]int, len(buckets))
	for st, gs := range buckets {
		counts[st] = len(gs)
	}

	selected, ok := buckets[status]
	if !ok {
		for _, g := range groups {
			if string(status) == transaction.All || g.HasStatus(status) {
				selected = append(selected, g)
			}
		}
	}
	selected = transaction.SearchCustomers(selected, search)

	out := make([]CustomerSummary, 0, len(selected))
	for _, g := range selected {
		out = append(out, CustomerSummary{
			ID:             g.ID,
			Name:           g.Name,
			Email:          g.Email,
			DocumentNumber: g.DocumentNumber,
			PhoneNumbers:   g.PhoneNumbers,
			Stats:          g.StatusStats(status),
		})
	}
	r.note("customers", len(out))
	return CustomersResult{Status: status, Customers: out, Counts: counts}, nil
}

func (s *Service) Customer(ctx context.Context, id int64) (_ transaction.CustomerDetail, err error) {
	ctx, r := s.begin(ctx, "dashboard.customer", "Customer", attribute.Int64("customer.id", id))
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return transaction.CustomerDetail{}, err
	}
	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return transaction.CustomerDetail{}, err
	}
	g, err := transaction.FindCustomer(transaction.GroupByCustomer(txs), id)
	if err != nil {
		return transaction.CustomerDetail{}, err
	}
	return g.Detail(), nil
}

// Ping reports provider reachability. Provider errors read as not connected.
func (s *Service) Ping(ctx context.Context) (_ bool, err error) {
	ctx, r := s.begin(ctx, "dashboard.ping", "Ping")
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return false, err
	}
	ok, perr := s.provider.Ping(ctx)
	if perr != nil {
		r.note("ping_error", perr.Error())
		return false, nil
	}
	return ok, nil
}

type Sample struct {
	Customers []order.Customer `json:"customers"`
	Orders    []order.View     `json:"orders"`
}

// Sample fetches a small slice of customers and recent orders, bypassing the cache.
func (s *Service) Sample(ctx context.Context) (_ Sample, err error) {
	ctx, r := s.begin(ctx, "dashboard.sample", "Sample")
	defer r.end(&err)

	if err := s.ready(); err != nil {
		return Sample{}, err
	}
	customers, err := s.provider.ListCustomers(ctx, 1, SampleSize)
	if err != nil {
		return Sample{}, providerError(err)
	}
	now := s.cfg.Now()
	orders, err := s.provider.ListOrders(ctx, order.Query{
		Page:         1,
		Size:         SampleSize,
		CreatedSince: now.AddDate(0, 0, -SampleWindowDays),
		CreatedUntil: now,
	})
	if err != nil {
		return Sample{}, providerError(err)
	}
	views := make([]order.View, 0, len(orders.Orders))
	for _, o := range orders.Orders {
		views = append(views, order.NewView(o, s.cfg.Location))
	}
	return Sample{Customers: customers.Customers, Orders: views}, nil
}
