// Package metrics provides Prometheus metrics for the ideagate gateway.
//
// # Metrics
//
//   - ideagate_gateway_requests_total{outcome,status}
//   - ideagate_gateway_request_duration_seconds{outcome}
//   - ideagate_ratelimit_checks_total{result}
//   - ideagate_upstream_requests_total{model,result}
//   - ideagate_upstream_duration_seconds{model}
//   - ideagate_upstream_tokens_total{model,type}
//   - ideagate_upstream_provider_health{provider}
//
// Label values are drawn from small fixed sets (outcomes, status codes, the
// configured model), so no cardinality limiting is applied.
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	collector.RecordRequest("ok", 200, elapsed)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
