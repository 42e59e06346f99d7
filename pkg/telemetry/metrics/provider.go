package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to the completion service.
//
// Metrics:
//   - ideagate_upstream_requests_total: calls by model and result
//   - ideagate_upstream_duration_seconds: call latency by model
//   - ideagate_upstream_tokens_total: reported token usage by model and type
//   - ideagate_upstream_provider_health: 1=healthy, 0=unhealthy
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	health   *prometheus.GaugeVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(namespace string, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of completion calls by model and result",
			},
			[]string{"model", "result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Completion call latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by the completion service",
			},
			[]string{"model", "type"},
		),

		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(um.requests, um.duration, um.tokens, um.health)

	return um
}

// RecordCall records one completion call.
func (um *UpstreamMetrics) RecordCall(model, result string, duration time.Duration) {
	um.requests.WithLabelValues(model, result).Inc()
	um.duration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordTokens adds prompt and completion token counts.
func (um *UpstreamMetrics) RecordTokens(model string, prompt, completion int) {
	if prompt > 0 {
		um.tokens.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		um.tokens.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

// UpdateHealth sets the provider health gauge.
func (um *UpstreamMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	um.health.WithLabelValues(provider).Set(value)
}
