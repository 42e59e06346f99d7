package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
// Message holds at most maxErrorBody bytes of the service's error body.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request timeout.
// This occurs when a request exceeds the configured timeout duration.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a response parsing failure.
// This occurs when the provider returns a malformed response.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ModelNotFoundError is returned when the service answers 404 for the
// requested model.
type ModelNotFoundError struct {
	// Provider is the name of the provider
	Provider string

	// Model is the requested model identifier
	Model string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ValidationError represents a request validation failure.
// This occurs when the request has invalid fields before sending to the provider.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// ContentBlockedError reports a completion withheld by the service's safety
// filters, either because the prompt was blocked or because the reply
// stopped without any text.
type ContentBlockedError struct {
	// Provider is the name of the provider that blocked the content
	Provider string

	// Reason is the block or finish reason reported by the service
	Reason string

	// Categories lists the harm categories rated at or above the threshold
	Categories []string
}

// Error implements the error interface.
func (e *ContentBlockedError) Error() string {
	if len(e.Categories) > 0 {
		return fmt.Sprintf("provider %q blocked content (%s): %s",
			e.Provider, e.Reason, strings.Join(e.Categories, ", "))
	}
	return fmt.Sprintf("provider %q blocked content (%s)", e.Provider, e.Reason)
}

// ConfigError represents a provider configuration error.
// This occurs when the provider configuration is invalid.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ErrorKind returns a short, stable label for err suitable for metrics and
// audit records.
func ErrorKind(err error) string {
	var (
		blocked    *ContentBlockedError
		auth       *AuthError
		rateLimit  *RateLimitError
		timeout    *TimeoutError
		parse      *ParseError
		notFound   *ModelNotFoundError
		validation *ValidationError
		cfg        *ConfigError
		provider   *ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &blocked):
		return "content_blocked"
	case errors.As(err, &auth):
		return "auth"
	case errors.As(err, &rateLimit):
		return "rate_limit"
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &notFound):
		return "model_not_found"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &cfg):
		return "config"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &provider):
		return "provider"
	default:
		return "unknown"
	}
}
