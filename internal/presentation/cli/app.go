package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	appCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/application/checkout"
	appDashboard "github.com/Zhima-Mochi/merchant-dashboard/internal/application/dashboard"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/config"
	domainCheckout "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/id"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/pagarme"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// app is the wired object graph shared by the commands.
type app struct {
	cfg    config.Config
	zap    *zap.Logger
	system *zap.Logger
	tel    observability.Observability

	dashboard *appDashboard.Service
	checkout  *appCheckout.PlaceCheckoutUseCase
	bus       *outbox.Bus
	worker    *appCheckout.Worker

	closers []func()
}

type appOptions struct {
	// metrics registers instruments on the default Prometheus registry.
	metrics bool
	// logLevel overrides the configured level (one-shot commands keep stdout clean).
	logLevel string
	// writePath wires the checkout store, the event bus and its worker.
	writePath bool
}

func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	base, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Level:   level,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{
		cfg:    cfg,
		zap:    base,
		system: logging.WithTrace(base, logging.SystemTraceID, logging.SystemSpanID),
	}
	a.closers = append(a.closers, func() { _ = base.Sync() })

	oteltrace.InstallPropagator()
	var reg prometrics.Registry
	if opts.metrics {
		reg = prometrics.New("", "", nil)
	}
	tracer := oteltrace.New(cfg.ServiceName,
		oteltrace.WithAttributes(attribute.String("deployment.environment", cfg.Env)),
	)
	a.tel = infraobs.New(tracer, zaplogger.New(base), reg)

	client := pagarme.New(pagarme.Config{
		APIKey:  cfg.PagarmeAPIKey,
		V1URL:   cfg.PagarmeV1URL,
		V5URL:   cfg.PagarmeV5URL,
		Timeout: cfg.ProviderTimeout,
	}, a.tel)
	if !client.Configured() {
		a.system.Warn("provider_api_key_missing")
	}

	cache := a.buildCache(ctx)
	a.dashboard = appDashboard.NewService(client, cache, appDashboard.Config{
		PageSize:     cfg.PageSize,
		MaxPages:     cfg.MaxPages,
		CacheTTL:     cfg.CacheTTL,
		CacheBackend: cfg.CacheBackend,
		Location:     cfg.Location(),
	}, a.tel)

	if !opts.writePath {
		a.checkout = appCheckout.NewPlaceCheckoutUseCase(client, memory.NewCheckoutRepository(), id.NewUUIDGenerator(), nil, a.tel,
			appCheckout.WithProduct(cfg.Product()))
		return a, nil
	}

	repo, err := a.buildStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.bus = outbox.NewBus(a.tel)
	a.checkout = appCheckout.NewPlaceCheckoutUseCase(client, repo, id.NewUUIDGenerator(), a.bus, a.tel,
		appCheckout.WithProduct(cfg.Product()))
	a.worker = appCheckout.NewWorker(a.dashboard, a.bus, a.tel)
	return a, nil
}

// buildCache returns the configured read cache, or nil when caching is off.
func (a *app) buildCache(ctx context.Context) appDashboard.Cache {
	switch a.cfg.CacheBackend {
	case config.CacheMemory:
		return memory.NewCache()
	case config.CacheRedis:
		c := redis.NewCache(redis.NewClient(redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
		}), "")
		a.closers = append(a.closers, func() { _ = c.Close() })
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			// Reads fall through to the provider while Redis is away.
			a.system.Warn("cache_unreachable", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		}
		return c
	default:
		return nil
	}
}

func (a *app) buildStore(ctx context.Context) (domainCheckout.Repository, error) {
	if a.cfg.CheckoutStore != config.StorePostgres {
		return memory.NewCheckoutRepository(), nil
	}
	pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	repo := postgres.NewCheckoutRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// start runs the event bus and subscribes the worker.
func (a *app) start(ctx context.Context) {
	if a.bus == nil {
		return
	}
	a.worker.Start()
	a.bus.Start(ctx)
}

func (a *app) stop(ctx context.Context) {
	if a.bus != nil {
		a.bus.Stop(ctx)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

var errNotConfigured = errors.New("PAGARME_API_KEY is not set")

// explain rewrites application errors for a terminal.
func explain(err error) error {
	if errors.Is(err, appDashboard.ErrNotConfigured) {
		return errNotConfigured
	}
	return err
}
