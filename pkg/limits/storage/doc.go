// Package storage provides fixed-window counter backends for rate limiting.
//
// # Overview
//
// A Backend stores one counter per key. Increment atomically adds one and
// opens a new window when the key is new or its window has expired:
//
//   - Redis: shared across instances (default in production)
//   - SQLite: file-based persistence for single-instance deployments
//   - Memory: process-local, for development and tests
//
// The memory backend tracks at most MaxEntries keys. Once full, a new key
// evicts the window closest to expiry, so that client starts over with a
// full budget. A flood of distinct keys can therefore reset other clients'
// budgets; keys must come from an address the client cannot choose (see the
// gateway's client IP header trust switch), and the memory backend should not
// face untrusted traffic on its own.
//
// # Usage
//
//	backend, err := storage.NewRedisBackend(storage.RedisBackendConfig{
//	    UpstashURL:   os.Getenv("UPSTASH_REDIS_REST_URL"),
//	    UpstashToken: os.Getenv("UPSTASH_REDIS_REST_TOKEN"),
//	})
//
//	counter, err := backend.Increment(ctx, "middleware:203.0.113.7", time.Minute)
//	if counter.Count > 10 {
//	    // over budget until counter.ResetAt
//	}
//
// # Thread Safety
//
// All storage backends are thread-safe and support concurrent access
// from multiple goroutines.
package storage
