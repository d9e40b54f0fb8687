// Package workerpresentation prepares contexts for code that runs outside an HTTP request.
package workerpresentation

import (
	"context"
	"sort"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext stores a logger for one background execution on ctx.
// The logger carries event_id (generated when attrs has none), the trace ids when valid,
// and the remaining non-empty attrs. Keep attrs low-cardinality.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.Or(tel).Logger()
	}

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := []observability.Field{observability.F("event_id", evtID)}

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if k != "event_id" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, observability.F(k, attrs[k]))
	}

	return logctx.With(ctx, base.With(fields...))
}
