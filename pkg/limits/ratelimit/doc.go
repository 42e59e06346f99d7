// Package ratelimit provides per-client fixed-window rate limiting.
//
// # Overview
//
// A Limiter grants each identifier (usually the client IP) a budget of
// Points consumptions per Duration. The first consumption opens the window;
// the window's counter lives in a storage.Backend so that every instance
// sharing the backend enforces the same budget.
//
//	limiter, _ := ratelimit.NewLimiter(backend, ratelimit.Config{
//	    Points:    10,
//	    Duration:  time.Minute,
//	    KeyPrefix: "middleware",
//	})
//
//	result, err := limiter.Consume(ctx, clientIP)
//	var exceeded *ratelimit.ExceededError
//	switch {
//	case errors.As(err, &exceeded):
//	    // 429, retry after exceeded.RetryAfter()
//	case err != nil:
//	    // backend unavailable
//	}
//
// # Thread Safety
//
// Limiter holds no mutable state; atomicity is provided by the backend.
package ratelimit
