package observability_test

import (
	"context"
	"testing"

	infraobs "github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func family(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestNewRegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := infraobs.New(nil, nil, prometrics.New("", "", reg))

	tel.Metrics().Counter(observability.MUsecaseRequests).Add(1,
		observability.L("use_case", "checkout.place"),
		observability.L("outcome", "success"),
	)
	tel.Metrics().Counter(observability.MCacheLookups).Add(2,
		observability.L("backend", "memory"),
		observability.L("result", "hit"),
	)
	tel.Metrics().Histogram(observability.MExternalRequestDuration).Observe(0.2,
		observability.L("peer", "pagarme"),
		observability.L("endpoint", "v1.transactions.list"),
	)

	mf := family(t, reg, "usecase_requests_total")
	if mf == nil || len(mf.GetMetric()) != 1 || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("usecase_requests_total = %v", mf)
	}
	if mf := family(t, reg, "cache_lookups_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Errorf("cache_lookups_total = %v", mf)
	}
	if mf := family(t, reg, "external_request_duration_seconds"); mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Errorf("external_request_duration_seconds = %v", mf)
	}
}

func TestRegistryReusesVectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New("md", "", reg)
	a := r.Counter("things_total", "help", "kind")
	b := r.Counter("things_total", "help", "kind")
	a.Add(1, observability.L("kind", "x"))
	b.Add(1, observability.L("kind", "x"))

	mf := family(t, reg, "md_things_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("md_things_total = %v", mf)
	}
}

func TestNilRegistryIsNop(t *testing.T) {
	tel := infraobs.New(nil, nil, nil)
	tel.Metrics().Counter(observability.MHTTPRequests).Add(1)
	tel.Metrics().Histogram(observability.MHTTPRequestDuration).Observe(1)
	tel.Logger().Info("ignored")
	_, span := tel.Tracer().Start(context.Background(), "span")
	span.End()
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tel := infraobs.New(oteltrace.New("test"), zaplogger.New(zap.New(core)), nil)

	tel.Logger().With(observability.F("service", "dashboard-service")).
		Warn("provider_request_failed",
			observability.F("status", 502),
			observability.F("error", context.DeadlineExceeded),
		)

	entries := logs.FilterMessage("provider_request_failed").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["service"] != "dashboard-service" || fields["status"] != int64(502) {
		t.Errorf("fields = %v", fields)
	}
	if fields["error"] != context.DeadlineExceeded.Error() {
		t.Errorf("error field = %v", fields["error"])
	}
}
