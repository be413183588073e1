package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine activity on a private registry, so several
// engines in one process never collide and callers choose whether to
// expose it.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	runs     prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates the engine collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "constfold",
			Name:      "fold_requests_total",
			Help:      "Fold requests evaluated, by function and outcome.",
		}, []string{"fn", "status"}),
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "constfold",
			Name:      "runs_total",
			Help:      "Batch runs completed.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "constfold",
			Name:      "fold_duration_seconds",
			Help:      "Time spent evaluating a single request.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

// observe counts one evaluated request. fn is the canonical function
// name, or "invalid" when the request did not parse.
func (m *Metrics) observe(fn string, status Status, seconds float64) {
	m.requests.WithLabelValues(fn, string(status)).Inc()
	m.duration.Observe(seconds)
}
