// Package health provides liveness and readiness endpoints for the gateway.
//
// Liveness (/health) only reports that the process is serving. Readiness
// (/ready) runs every registered check concurrently, each bounded by the
// configured timeout, and answers 503 when any of them fails.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout, version)
//	checker.RegisterCheck("ratelimit", limiter.Ping)
//	checker.RegisterCheck("provider", provider.HealthCheck)
//	checker.Register(mux, "/health", "/ready")
package health
