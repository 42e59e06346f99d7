// Package telemetry groups the gateway's observability packages.
//
//   - logging: slog construction with PII redaction and request IDs
//   - metrics: Prometheus collectors on a private registry
//   - health: liveness and readiness endpoints
package telemetry
