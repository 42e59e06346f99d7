// Package server provides the HTTP server that hosts the gateway.
//
// It mounts the gateway on the configured route next to the health and
// metrics endpoints, chains the middleware, and manages the listener's
// lifecycle including graceful shutdown.
//
// # Basic Usage
//
//	srv := server.New(server.Options{
//	    Config:  cfg.Server,
//	    Gateway: gw,
//	    Health:  checker,
//	    Metrics: collector,
//	    Logger:  logger,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is canceled or the listener fails. On cancellation
// the server stops accepting connections and waits up to
// server.shutdown_timeout for in-flight requests.
//
// # Routes
//
//   - POST /generate - the gateway (path from server.route)
//   - GET /health - liveness check
//   - GET /ready - readiness check (rate-limit backend, provider, audit store)
//   - GET /metrics - Prometheus metrics, when enabled
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. RequestID: assigns X-Request-ID and stores it in the context
//  2. Recovery: converts panics to 500
//  3. Logging: access log with status and latency
//  4. Timeout: enforces server.request_timeout with 504
//
// TLS is terminated in front of the server.
package server
