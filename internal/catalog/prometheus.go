package catalog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder fulfills MetricsRecorder with prometheus
// collectors: a histogram of operation durations and a counter of outcomes.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs the collectors and registers them
// with the supplied registerer (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "halomock",
				Subsystem: "catalog",
				Name:      "operation_duration_seconds",
				Help:      "Duration of catalog service operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "halomock",
				Subsystem: "catalog",
				Name:      "operations_total",
				Help:      "Total catalog service operations by outcome",
			},
			[]string{"operation", "status"},
		),
	}
	if err := reg.Register(rec.durations); err != nil {
		return nil, err
	}
	if err := reg.Register(rec.results); err != nil {
		return nil, err
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}
