// Package observability assembles the tracer, logger and Prometheus instruments into
// the observability.Observability the use cases receive.
package observability

import (
	"github.com/Zhima-Mochi/merchant-dashboard/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instruments resolves keys to registered vectors; unknown keys get no-ops so a
// caller asking for an undeclared metric never panics.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// New registers observability.Definitions on reg and bundles them with tracer and logger.
// A nil reg leaves metrics as no-ops, which the one-shot CLI commands rely on.
func New(tracer observability.Tracer, logger observability.Logger, reg prometrics.Registry) observability.Observability {
	p := &provider{
		tracer:  tracer,
		logger:  logger,
		metrics: observability.NopMetrics(),
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	if reg != nil {
		counters, histograms := prometrics.Instruments(reg, observability.Definitions)
		p.metrics = instruments{counters: counters, histograms: histograms}
	}
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
