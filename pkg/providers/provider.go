package providers

import "context"

// Provider is the interface the gateway uses to reach a text-completion
// service. Implementations translate the provider-agnostic request into the
// service's wire format and normalize the reply.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must return promptly once the context is done.
//
// Example usage:
//
//	provider, err := gemini.NewProvider(cfg, keys)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:          "gemini-1.5-flash",
//	    Prompt:         prompt.Render(promesa),
//	    SafetySettings: prompt.SafetySettings(""),
//	})
type Provider interface {
	// SendCompletion sends a single completion request and returns the
	// normalized response. A reply withheld by the service's safety filters
	// is reported as *ContentBlockedError.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// HealthCheck sends a lightweight request to verify the service is
	// reachable and accepts the configured credentials.
	HealthCheck(ctx context.Context) error

	// GetName returns the provider's configured name.
	GetName() string

	// GetType returns the provider's type (e.g., "gemini").
	GetType() string

	// GetConfig returns the provider's configuration.
	GetConfig() ProviderConfig

	// IsHealthy returns the current health status of the provider.
	IsHealthy() bool

	// GetHealth returns detailed health information including last check time,
	// consecutive failures, and error details.
	GetHealth() ProviderHealth

	// Close releases the provider's resources. The provider must not be used
	// afterwards.
	Close() error
}

// KeySource resolves the API key for each outgoing request, so that a rotated
// key takes effect without a restart.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource that always returns the same key.
type StaticKey string

// APIKey implements KeySource.
func (k StaticKey) APIKey(context.Context) (string, error) {
	return string(k), nil
}
