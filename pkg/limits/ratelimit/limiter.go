package ratelimit

import (
	"context"
	"fmt"
	"time"

	"guionesreels/ideagate/pkg/limits/storage"
)

// Limiter enforces a fixed-window budget per identifier on top of a shared
// counter backend.
//
// The first consumption for an identifier opens a window of Config.Duration.
// Consumptions 1..Points inside the window are allowed; later ones are
// rejected with the time remaining until the window resets. Rejected
// consumptions still count, so hammering a closed window does not reopen it
// early.
type Limiter struct {
	backend storage.Backend
	config  Config
	now     func() time.Time
}

// NewLimiter creates a new rate limiter over backend.
//
// Example:
//
//	limiter, err := NewLimiter(backend, Config{
//	    Points:    10,
//	    Duration:  time.Minute,
//	    KeyPrefix: "middleware",
//	})
func NewLimiter(backend storage.Backend, config Config) (*Limiter, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if config.Points < 1 {
		return nil, fmt.Errorf("points must be at least 1, got %d", config.Points)
	}
	if config.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", config.Duration)
	}

	return &Limiter{
		backend: backend,
		config:  config,
		now:     time.Now,
	}, nil
}

// Consume spends one point of identifier's budget.
//
// It returns the decision and, when the budget is exhausted, an
// *ExceededError wrapping the same decision. Any other error means the
// backend could not be reached and no decision was made.
func (l *Limiter) Consume(ctx context.Context, identifier string) (*CheckResult, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	counter, err := l.backend.Increment(ctx, l.key(identifier), l.config.Duration)
	if err != nil {
		return nil, fmt.Errorf("rate limit backend: %w", err)
	}

	limit := int64(l.config.Points)
	retryAfter := counter.TTL(l.now())
	result := &CheckResult{
		Allowed:   counter.Count <= limit,
		Limit:     limit,
		Remaining: max(limit-counter.Count, 0),
		Reset:     counter.ResetAt,
	}

	if !result.Allowed {
		result.Reason = fmt.Sprintf("%d requests per %v exceeded", limit, l.config.Duration)
		result.RetryAfter = retryAfter
		return result, &ExceededError{Identifier: identifier, Result: result}
	}

	return result, nil
}

// Reset clears identifier's budget.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	return l.backend.Reset(ctx, l.key(identifier))
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}

func (l *Limiter) key(identifier string) string {
	if l.config.KeyPrefix == "" {
		return identifier
	}
	return l.config.KeyPrefix + ":" + identifier
}
