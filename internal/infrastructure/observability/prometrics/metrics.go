package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry creates Prometheus vectors once per name and hands them out behind the
// observability ports. A second request for a name returns the first vector.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New returns a registry that registers vectors on reg (prometheus.DefaultRegisterer when nil).
func New(namespace, subsystem string, reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{namespace: namespace, subsystem: subsystem, reg: reg}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	r.counters.Store(name, cv)
	return &counter{v: cv}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	r.histograms.Store(name, hv)
	return &histogram{v: hv}
}

// Instruments registers one vector per definition and returns them by key.
func Instruments(r Registry, defs []observability.Definition) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := make(map[observability.MetricKey]observability.Counter)
	histograms := make(map[observability.MetricKey]observability.Histogram)
	for _, d := range defs {
		switch d.Kind {
		case observability.KindCounter:
			counters[d.Key] = r.Counter(string(d.Key), d.Help, d.Labels...)
		case observability.KindHistogram:
			histograms[d.Key] = r.Histogram(string(d.Key), d.Help, bucketsFor(d.Key), d.Labels...)
		}
	}
	return counters, histograms
}

// providerBuckets stretch past DefBuckets: provider listings of 1000 rows take seconds.
var providerBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30}

func bucketsFor(key observability.MetricKey) []float64 {
	switch key {
	case observability.MExternalRequestDuration, observability.MUsecaseDuration:
		return providerBuckets
	default:
		return prometheus.DefBuckets
	}
}
