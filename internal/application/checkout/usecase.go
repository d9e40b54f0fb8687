// Package checkout places orders with the payment provider and keeps a local record
// of each one so a retried request replays instead of charging twice.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/application"
	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	domoutbox "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/outbox"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	checkoutService   = "checkout-service"
	useCaseCheckout   = "checkout.place"
	useCaseForwardTxn = "checkout.forward_transaction"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = "checkout.completed"
	publishTimeout    = 300 * time.Millisecond
)

// ProviderFailureMessage is what callers see when the provider rejects or fails a checkout.
const ProviderFailureMessage = "Erro ao processar pagamento"

var (
	ErrInvalid       = domain.ErrInvalid
	ErrConflict      = domain.ErrConflict
	ErrInProgress    = domain.ErrInProgress
	ErrNotConfigured = errors.New("checkout: provider api key not configured")
	ErrProvider      = errors.New("checkout: provider failure")
	ErrRepository    = errors.New("checkout: repository failure")
)

var _ application.UseCase[Input, *Result] = (*PlaceCheckoutUseCase)(nil)

// PlaceCheckoutUseCase creates the provider customer and order for one checkout.
type PlaceCheckoutUseCase struct {
	provider    Provider
	repo        domain.Repository
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	product     domain.Product
	now         func() time.Time
	tel         observability.Observability
	inflight    singleflight.Group

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

type Option func(*PlaceCheckoutUseCase)

// WithProduct replaces the default catalog item.
func WithProduct(p domain.Product) Option {
	return func(uc *PlaceCheckoutUseCase) { uc.product = p }
}

func WithClock(now func() time.Time) Option {
	return func(uc *PlaceCheckoutUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func NewPlaceCheckoutUseCase(
	provider Provider,
	repo domain.Repository,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...Option,
) *PlaceCheckoutUseCase {
	tel = observability.Or(tel)
	m := tel.Metrics()
	uc := &PlaceCheckoutUseCase{
		provider:     provider,
		repo:         repo,
		idGenerator:  idGen,
		publisher:    publisher,
		product:      domain.DefaultProduct(),
		now:          time.Now,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", checkoutService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type Input struct {
	IdempotencyKey string
	Request        domain.Request
}

type Result struct {
	RecordID        string
	ProviderOrderID string
	Status          string
	// Body is the provider's order response, unchanged.
	Body []byte
	// Replayed is set when the idempotency key matched an earlier checkout.
	Replayed bool
}

func resultFrom(r *domain.Record, replayed bool) *Result {
	return &Result{
		RecordID:        r.ID,
		ProviderOrderID: r.ProviderOrderID,
		Status:          r.Status,
		Body:            r.Response,
		Replayed:        replayed,
	}
}

// attempt is what one Execute call reports in use_case_done.
type attempt struct {
	status     string
	recordID   string
	publishErr error
}

// Execute runs validate, reserve, create customer, create order, record and publish.
// Calls sharing an idempotency key place at most one provider order.
func (uc *PlaceCheckoutUseCase) Execute(ctx context.Context, cmd Input) (_ *Result, err error) {
	st := attempt{status: "OK"}

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceCheckout",
		attribute.String("use_case", useCaseCheckout),
		attribute.String("checkout.payment_method", string(cmd.Request.Payment.PaymentMethod)),
		attribute.Bool("checkout.idempotent", cmd.IdempotencyKey != ""),
	)
	ctx, logger := logctx.Derive(ctx, uc.log, observability.F("use_case", useCaseCheckout))
	start := time.Now()

	defer func() {
		lat := time.Since(start).Seconds()
		outcome := application.Outcome(err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, st.status)
		} else {
			span.SetStatus(codes.Ok, st.status)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCheckout),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseCheckout))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", st.status),
			observability.F("latency_seconds", lat),
		}
		if st.recordID != "" {
			fields = append(fields, observability.F("record_id", st.recordID))
		}
		if st.publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", st.publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if uc.provider == nil || !uc.provider.Configured() {
		st.status = "API_KEY_MISSING"
		return nil, ErrNotConfigured
	}

	req := cmd.Request
	req.Normalize()
	if err := req.Validate(); err != nil {
		st.status = "VALIDATION_FAILED"
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		st.status = "CONTEXT_CANCELED"
		return nil, err
	}

	if cmd.IdempotencyKey == "" {
		return uc.place(ctx, span, logger, &st, req, nil)
	}

	leader := false
	v, err, _ := uc.inflight.Do(cmd.IdempotencyKey, func() (any, error) {
		leader = true
		return uc.placeOnce(ctx, span, logger, &st, cmd.IdempotencyKey, req)
	})
	if err != nil {
		if !leader {
			st.status = "IDEMPOTENT_WAIT_FAILED"
		}
		return nil, err
	}
	res := v.(*Result)
	if leader {
		return res, nil
	}
	shared := *res
	shared.Replayed = true
	st.recordID, st.status = shared.RecordID, "IDEMPOTENT_REPLAY"
	uc.markReplay(span, shared.RecordID, shared.Status)
	return &shared, nil
}

// placeOnce claims key in the repository before any provider call, so a second
// process holding the same key replays or backs off instead of charging again.
func (uc *PlaceCheckoutUseCase) placeOnce(ctx context.Context, span trace.Span, logger observability.Logger, st *attempt, key string, req domain.Request) (*Result, error) {
	if res, err := uc.replay(ctx, span, st, key); res != nil || err != nil {
		return res, err
	}
	resv := domain.NewReservation(uc.idGenerator.NewID(), key, req.Payment.PaymentMethod, uc.now())
	if err := uc.repo.Insert(ctx, resv); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if res, rerr := uc.replay(ctx, span, st, key); res != nil || rerr != nil {
				return res, rerr
			}
		}
		st.status = "IDEMPOTENCY_RESERVE_FAILED"
		return nil, wrapRepositoryError(err)
	}
	return uc.place(ctx, span, logger, st, req, resv)
}

// replay returns the stored result for key, ErrInProgress while a reservation holds
// it, or nil, nil when key is unused.
func (uc *PlaceCheckoutUseCase) replay(ctx context.Context, span trace.Span, st *attempt, key string) (*Result, error) {
	existing, err := uc.repo.FindByIdempotency(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		st.status = "IDEMPOTENCY_LOOKUP_FAILED"
		return nil, wrapRepositoryError(err)
	case existing.Reserved():
		st.status = "IDEMPOTENCY_IN_PROGRESS"
		return nil, ErrInProgress
	}
	st.recordID, st.status = existing.ID, "IDEMPOTENT_REPLAY"
	uc.markReplay(span, existing.ID, existing.Status)
	return resultFrom(existing, true), nil
}

// place calls the provider and stores the record. resv is the reservation to
// complete, or nil for checkouts without an idempotency key.
func (uc *PlaceCheckoutUseCase) place(ctx context.Context, span trace.Span, logger observability.Logger, st *attempt, req domain.Request, resv *domain.Record) (*Result, error) {
	customer, perr := uc.provider.CreateCustomer(ctx, req.CustomerRequest())
	if perr != nil {
		st.status = "CUSTOMER_CREATE_FAILED"
		uc.release(ctx, logger, resv)
		return nil, providerError(perr)
	}
	span.SetAttributes(attribute.String("checkout.customer_id", customer.ID))

	now := uc.now()
	created, perr := uc.provider.CreateOrder(ctx, req.OrderRequest(customer.ID, uc.product, now))
	if perr != nil {
		st.status = "ORDER_CREATE_FAILED"
		uc.release(ctx, logger, resv)
		return nil, providerError(perr)
	}
	span.SetAttributes(attribute.String("checkout.order_id", created.ID))

	store, key := uc.repo.Insert, ""
	if resv != nil {
		st.recordID, key = resv.ID, resv.IdempotencyKey
		store = uc.repo.Complete
	} else {
		st.recordID = uc.idGenerator.NewID()
	}
	rec, derr := domain.NewRecord(st.recordID, key, customer.ID, req.Payment.PaymentMethod, created, now)
	if derr != nil {
		st.status = "RECORD_CONSTRUCTION_FAILED"
		uc.release(ctx, logger, resv)
		return nil, fmt.Errorf("%w: %w", ErrProvider, derr)
	}

	// The order exists at the provider from here on; store failures are logged, not surfaced.
	if err := store(context.WithoutCancel(ctx), rec); err != nil {
		st.status = "RECORD_STORE_FAILED"
		span.RecordError(err)
		logger.Error("checkout_record_failed",
			observability.F("provider_order_id", created.ID),
			observability.F("error", err.Error()),
		)
	}

	if uc.publisher != nil {
		st.publishErr = uc.publish(ctx, rec)
		if st.publishErr != nil {
			st.status = "EVENT_PUBLISH_FAILED"
		}
	}

	span.SetAttributes(attribute.String("checkout.status", rec.Status))
	span.AddEvent("checkout.completed",
		trace.WithAttributes(attribute.String("checkout.record_id", rec.ID)),
	)
	return resultFrom(rec, false), nil
}

// release frees a reservation after a failed provider call so the key can be retried.
func (uc *PlaceCheckoutUseCase) release(ctx context.Context, logger observability.Logger, resv *domain.Record) {
	if resv == nil {
		return
	}
	if err := uc.repo.Release(context.WithoutCancel(ctx), resv.ID); err != nil {
		logger.Error("checkout_release_failed",
			observability.F("record_id", resv.ID),
			observability.F("error", err.Error()),
		)
	}
}

func (uc *PlaceCheckoutUseCase) markReplay(span trace.Span, recordID, status string) {
	span.SetAttributes(attribute.String("checkout.status", status))
	span.AddEvent("checkout.idempotent_replay",
		trace.WithAttributes(attribute.String("checkout.record_id", recordID)),
	)
}

func (uc *PlaceCheckoutUseCase) publish(ctx context.Context, rec *domain.Record) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	pubStart := time.Now()
	err := uc.publisher.Publish(pubCtx, domain.NewCompletedEvent(rec))
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	pubOutcome := application.Outcome(err)

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)
	return err
}

// ForwardTransaction posts body to the legacy transactions endpoint and returns
// the provider's response as is.
func (uc *PlaceCheckoutUseCase) ForwardTransaction(ctx context.Context, body []byte) (_ []byte, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ForwardTransaction",
		attribute.String("use_case", useCaseForwardTxn),
		attribute.Int("body.bytes", len(body)),
	)
	ctx, logger := logctx.Derive(ctx, uc.log, observability.F("use_case", useCaseForwardTxn))
	start := time.Now()

	defer func() {
		lat := time.Since(start).Seconds()
		outcome, statusText := application.Outcome(err), "OK"
		if err != nil {
			statusText = "PROVIDER_FAILED"
			if errors.Is(err, ErrNotConfigured) {
				statusText = "API_KEY_MISSING"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseForwardTxn),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseForwardTxn))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if uc.provider == nil || !uc.provider.Configured() {
		return nil, ErrNotConfigured
	}
	out, perr := uc.provider.CreateTransaction(ctx, body)
	if perr != nil {
		return nil, providerError(perr)
	}
	return out, nil
}

func providerError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}

func wrapRepositoryError(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return ErrConflict
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
