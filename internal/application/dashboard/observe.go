package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/application"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/transaction"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

// run is one traced, measured use case execution.
type run struct {
	s       *Service
	useCase string
	start   time.Time
	span    trace.Span
	logger  observability.Logger
	fields  []observability.Field
}

func (s *Service) begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *run) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+spanName, attrs...)
	ctx, logger := logctx.Derive(ctx, s.log, observability.F("use_case", useCase))
	return ctx, &run{s: s, useCase: useCase, start: time.Now(), span: span, logger: logger}
}

// note adds a field to the use_case_done line.
func (r *run) note(k string, v any) { r.fields = append(r.fields, observability.F(k, v)) }

func (r *run) end(errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	outcome, statusText := application.Outcome(err), "OK"
	if err != nil {
		statusText = statusFor(err)
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, statusText)
		} else {
			r.span.SetStatus(codes.Ok, statusText)
		}
		r.span.End()
	}

	r.s.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", outcome),
	)
	r.s.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.logger.Info("use_case_done", fields...)
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "API_KEY_MISSING"
	case errors.Is(err, transaction.ErrCustomerNotFound):
		return "CUSTOMER_NOT_FOUND"
	case errors.Is(err, ErrProvider):
		return "PROVIDER_FAILED"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "ERROR"
	}
}
