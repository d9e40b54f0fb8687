// Package observability holds the ports the dashboard logs, traces and measures through.
// Concrete adapters live under internal/infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the tracer, logger and metric instruments handed to use cases.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

// Tracer is a thin wrapper to start spans.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Counter hides the metrics vendor from callers.
type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Logger is a thin wrapper to log messages.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Values of the outcome label and the outcome log field.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeIgnored  = "ignored"
)

// TraceFields returns trace_id and span_id of the span on ctx, or nil when it has none.
func TraceFields(ctx context.Context) []Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []Field{
		F("trace_id", sc.TraceID().String()),
		F("span_id", sc.SpanID().String()),
	}
}
