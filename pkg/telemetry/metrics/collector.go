package metrics

import (
	"strconv"
	"time"

	"guionesreels/ideagate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes metric names when the configuration leaves it empty.
const DefaultNamespace = "ideagate"

// Collector owns the gateway's Prometheus metrics and a private registry.
//
// All Record methods are safe on a nil or disabled Collector, so components
// can hold one unconditionally.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	gatewayMetrics   *GatewayMetrics
	rateLimitMetrics *RateLimitMetrics
	upstreamMetrics  *UpstreamMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Collector{
		enabled:          cfg.IsEnabled(),
		registry:         registry,
		gatewayMetrics:   NewGatewayMetrics(namespace, registry),
		rateLimitMetrics: NewRateLimitMetrics(namespace, registry),
		upstreamMetrics:  NewUpstreamMetrics(namespace, registry),
	}
}

func (c *Collector) active() bool {
	return c != nil && c.enabled
}

// RecordRequest records a finished gateway request.
//
// Parameters:
//   - outcome: pipeline result (e.g., "ok", "forbidden_origin", "rate_limited")
//   - status: HTTP status code returned to the client
//   - duration: total handling time
func (c *Collector) RecordRequest(outcome string, status int, duration time.Duration) {
	if !c.active() {
		return
	}
	c.gatewayMetrics.RecordRequest(outcome, strconv.Itoa(status), duration)
}

// RecordRateLimitCheck records one rate-limit decision.
// result is "allowed", "exceeded", "error", or "skipped".
func (c *Collector) RecordRateLimitCheck(result string) {
	if !c.active() {
		return
	}
	c.rateLimitMetrics.RecordCheck(result)
}

// RecordUpstream records one completion call.
// result is "success" or an error kind such as "timeout" or "content_blocked".
func (c *Collector) RecordUpstream(model, result string, duration time.Duration) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.RecordCall(model, result, duration)
}

// RecordUpstreamTokens adds token usage reported by the completion service.
func (c *Collector) RecordUpstreamTokens(model string, prompt, completion int) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.RecordTokens(model, prompt, completion)
}

// UpdateProviderHealth updates the health gauge of a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.active() {
		return
	}
	c.upstreamMetrics.UpdateHealth(provider, healthy)
}

// Enabled reports whether metrics are recorded and served.
func (c *Collector) Enabled() bool {
	return c.active()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
