package ratelimit

import (
	"fmt"
	"time"
)

// Config contains the budget applied to every identifier.
type Config struct {
	// Points is the number of consumptions allowed per window.
	Points int

	// Duration is the length of the fixed window opened by the first
	// consumption of an identifier.
	Duration time.Duration

	// KeyPrefix namespaces identifiers in the shared store.
	KeyPrefix string
}

// CheckResult contains the result of a rate limit consumption.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Reason explains why the request was rejected (if Allowed=false).
	Reason string

	// Limit is the configured number of points per window.
	Limit int64

	// Remaining is how many points remain in the window.
	Remaining int64

	// Reset is when the window resets.
	Reset time.Time

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

// ExceededError is returned when an identifier has exhausted its budget.
type ExceededError struct {
	// Identifier is the client the budget belongs to.
	Identifier string

	// Result is the rejected consumption.
	Result *CheckResult
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry after %v", e.Identifier, e.RetryAfter())
}

// RetryAfter is the time until the window resets.
func (e *ExceededError) RetryAfter() time.Duration {
	if e.Result == nil {
		return 0
	}
	return e.Result.RetryAfter
}
