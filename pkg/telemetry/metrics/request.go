package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks requests handled by the admission pipeline.
//
// Metrics:
//   - ideagate_gateway_requests_total: requests by outcome and status code
//   - ideagate_gateway_request_duration_seconds: handling time by outcome
type GatewayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewGatewayMetrics creates and registers gateway metrics with the provided registry.
func NewGatewayMetrics(namespace string, registry *prometheus.Registry) *GatewayMetrics {
	gm := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of gateway requests by outcome and status",
			},
			[]string{"outcome", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds",
				// Rejections finish in microseconds; completions take seconds.
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(gm.requestsTotal, gm.requestDuration)

	return gm
}

// RecordRequest records one finished request.
func (gm *GatewayMetrics) RecordRequest(outcome, status string, duration time.Duration) {
	gm.requestsTotal.WithLabelValues(outcome, status).Inc()
	gm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
