// Package oteltrace backs observability.Tracer with OpenTelemetry.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "merchant-dashboard"

type tracer struct {
	t      trace.Tracer
	common []attribute.KeyValue
}

type options struct {
	provider trace.TracerProvider
	common   []attribute.KeyValue
}

type Option func(*options)

// WithProvider uses tp instead of the global TracerProvider.
func WithProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.provider = tp }
}

// WithAttributes stamps attrs on every span, e.g. the deployment environment.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) { o.common = append(o.common, attrs...) }
}

func New(name string, opts ...Option) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider == nil {
		o.provider = otel.GetTracerProvider()
	}
	return &tracer{t: o.provider.Tracer(name), common: o.common}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if len(t.common) > 0 {
		attrs = append(append(make([]attribute.KeyValue, 0, len(t.common)+len(attrs)), t.common...), attrs...)
	}
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// InstallPropagator sets W3C trace context + baggage as the global propagator.
// Exporters are not configured here; without an SDK TracerProvider spans are no-ops.
func InstallPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
