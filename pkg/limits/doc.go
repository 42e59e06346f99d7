// Package limits provides per-client request budgets for the gateway.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: fixed-window limiter and its decision types
//   - storage: counter backends (Redis, SQLite, memory)
//
// Manager ties them to configuration:
//
//	manager, err := limits.NewManager(cfg.RateLimit, logger)
//	result, err := manager.Consume(ctx, clientIP)
//
// A disabled manager admits every request without touching a backend.
// With fail_open set, backend errors are logged and the request is admitted;
// otherwise they are returned to the caller, which answers with 500.
package limits
