package providers

import (
	"time"

	"guionesreels/ideagate/pkg/prompt"
)

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`
}

// CompletionRequest represents a provider-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "gemini-1.5-flash")
	Model string `json:"model"`

	// Prompt is the fully rendered prompt text
	Prompt string `json:"prompt"`

	// SafetySettings are sent in order with the request
	SafetySettings []prompt.SafetySetting `json:"safety_settings,omitempty"`

	// Temperature overrides the service's default sampling temperature when set
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxOutputTokens caps the completion length (0 = service default)
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`

	// Metadata carries request context for logging. It is never sent upstream.
	Metadata map[string]string `json:"-"`
}

// CompletionResponse represents a provider-agnostic completion response.
type CompletionResponse struct {
	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text
	Content string `json:"content"`

	// FinishReason indicates why generation stopped
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption information
	Usage TokenUsage `json:"usage"`

	// Latency is the time spent waiting for the service
	Latency time.Duration `json:"-"`
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	// IsHealthy indicates whether the provider is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last health check
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failures
	ConsecutiveFailures int

	// LastSuccessfulRequest is the timestamp of the last successful request
	LastSuccessfulRequest time.Time

	// TotalRequests is the total number of requests sent to this provider
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64
}

// ProviderConfig contains configuration for a single provider instance.
type ProviderConfig struct {
	// Name is the provider identifier used in logs and errors
	Name string

	// Type is the provider type (gemini)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// Model is the default model when a request does not name one
	Model string

	// Timeout is the per-request timeout
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt (0 = single attempt)
	MaxRetries int

	// RequestsPerSecond throttles outgoing requests (0 = unlimited)
	RequestsPerSecond float64

	// Burst is the throttle bucket size
	Burst int

	// HealthCheckInterval is how often the background checker runs
	HealthCheckInterval time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}
