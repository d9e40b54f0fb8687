package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/application"
	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	domoutbox "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/outbox"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const workerService = "checkout-worker"

// Worker reacts to completed checkouts by dropping cached provider reads.
type Worker struct {
	cache      CacheInvalidator
	subscriber domoutbox.Subscriber
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewWorker(cache CacheInvalidator, subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return &Worker{
		cache:        cache,
		subscriber:   subscriber,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.cache == nil {
		return
	}
	w.subscriber.Subscribe(domain.CompletedEvent{}.EventName(), w.handleCompleted)
}

func (w *Worker) handleCompleted(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "checkout.worker.completed"
	evt, ok := e.(domain.CompletedEvent)
	if !ok {
		w.count(useCase, observability.OutcomeIgnored)
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"CheckoutCompleted",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.String("checkout.record_id", evt.RecordID),
	)
	start := time.Now()
	status := "OK"

	ctx, logger := logctx.Derive(ctx, w.log,
		observability.F("use_case", useCase),
		observability.F("event", e.EventName()),
	)

	defer func() {
		lat := time.Since(start).Seconds()
		outcome := application.Outcome(err)
		w.observe(useCase, outcome, lat)
		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
			observability.F("record_id", evt.RecordID),
			observability.F("provider_order_id", evt.ProviderOrderID),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	if ierr := w.cache.Invalidate(ctx); ierr != nil {
		status = "CACHE_INVALIDATE_FAILED"
		return fmt.Errorf("worker: invalidate cache: %w", ierr)
	}
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds, observability.L("use_case", useCase))
}
