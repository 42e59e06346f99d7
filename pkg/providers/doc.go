// Package providers defines the completion service abstraction used by the
// gateway.
//
// # Architecture
//
// The package is organized into layers:
//
//  1. Provider interface - the contract the gateway depends on
//  2. HTTPProvider - shared HTTP plumbing: pooled client, optional throttle,
//     bounded retries, typed errors, and health tracking
//  3. Adapters - service-specific implementations (see the gemini package)
//
// # Basic Usage
//
//	provider, err := gemini.NewProvider(providers.ProviderConfig{
//	    BaseURL: "https://generativelanguage.googleapis.com",
//	    Model:   "gemini-1.5-flash",
//	    Timeout: 30 * time.Second,
//	}, secretsKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Prompt:         prompt.Render(promesa),
//	    SafetySettings: prompt.SafetySettings(""),
//	})
//
// # Error Handling
//
// All failures are typed so callers can branch with errors.As:
//
//   - AuthError: the service rejected the API key (401/403)
//   - RateLimitError: the service's quota was exceeded (429)
//   - TimeoutError: the deadline passed, or the throttle could not admit the
//     request before it
//   - ParseError: the reply was not valid JSON
//   - ModelNotFoundError: the model does not exist (404)
//   - ContentBlockedError: the safety filters withheld the reply
//   - ProviderError: any other non-2xx reply or transport failure
//   - ValidationError, ConfigError: the request or configuration is unusable
//
// ErrorKind maps any of these to a short label for metrics and audit records.
//
// # Retries and Throttling
//
// MaxRetries defaults to zero: a request makes exactly one attempt. When set,
// network errors and 5xx replies are retried with exponential backoff (1s, 2s,
// 4s, ...); 4xx replies never are. RequestsPerSecond enables a token-bucket
// throttle (golang.org/x/time/rate) shared by every request of the provider.
//
// # Health Checks
//
// Three consecutive failures mark a provider unhealthy; any success restores
// it. StartHealthChecker checks periodically, backing off while unhealthy.
// Adapters install their check with SetHealthCheck.
//
// # Thread Safety
//
// Providers are safe for concurrent use. Build one at startup and share it.
package providers
