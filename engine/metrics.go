package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ormquery",
			Subsystem: "engine",
			Name:      "query_duration_seconds",
			Help:      "Duration of query executions by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ormquery",
			Subsystem: "engine",
			Name:      "query_errors_total",
			Help:      "Failed query executions by operation.",
		}, []string{"operation"}),
	}
}

func (m *metrics) observe(op mode, start time.Time, err *error) {
	m.duration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
	if *err != nil {
		m.errors.WithLabelValues(op.String()).Inc()
	}
}

// Collectors returns the prometheus collectors of the engine metrics
func (e *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.metrics.duration, e.metrics.errors}
}
