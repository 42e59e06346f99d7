package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RateLimitMetrics tracks rate-limit decisions.
//
// Metrics:
//   - ideagate_ratelimit_checks_total: decisions by result
type RateLimitMetrics struct {
	checks *prometheus.CounterVec
}

// NewRateLimitMetrics creates and registers rate-limit metrics with the provided registry.
func NewRateLimitMetrics(namespace string, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "checks_total",
				Help:      "Total number of rate limit checks by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(rm.checks)

	return rm
}

// RecordCheck records one decision.
func (rm *RateLimitMetrics) RecordCheck(result string) {
	rm.checks.WithLabelValues(result).Inc()
}
