package storage

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: backend closed")

// Backend defines the interface for fixed-window counter persistence.
// Implementations must be thread-safe, and Increment must be atomic per key
// so that concurrent consumers never observe the same count.
type Backend interface {
	// Increment adds one to the counter stored under key. If the key does not
	// exist or its window has expired, a new window of the given length is
	// opened and the count restarts at 1.
	Increment(ctx context.Context, key string, window time.Duration) (*Counter, error)

	// Reset removes the counter stored under key. No-op if it doesn't exist.
	Reset(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	// The backend should not be used after calling Close.
	Close() error
}

// Counter is the state of a single window after an increment.
type Counter struct {
	// Key is the storage key the counter lives under.
	Key string

	// Count is the number of increments within the current window,
	// including the one that produced this Counter.
	Count int64

	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// TTL returns the time remaining in the window relative to now.
// It never returns a negative duration.
func (c *Counter) TTL(now time.Time) time.Duration {
	if d := c.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
