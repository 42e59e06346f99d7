package providers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"guionesreels/ideagate/pkg/providers"
)

// TestConfig returns a provider configuration pointing at baseURL.
func TestConfig(baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                "gemini-test",
		Type:                "gemini",
		BaseURL:             baseURL,
		Model:               "gemini-1.5-flash",
		Timeout:             5 * time.Second,
		HealthCheckInterval: time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// AssertErrorAs fails the test unless err matches target's type.
func AssertErrorAs(t *testing.T, err error, target interface{}) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %T, got nil", target)
	}
	if !errors.As(err, target) {
		t.Fatalf("expected %T, got %T: %v", target, err, err)
	}
}

// FakeProvider is a scripted providers.Provider. It returns Reply, or Err when
// set, and records every request.
type FakeProvider struct {
	Reply     string
	Err       error
	HealthErr error
	Delay     time.Duration

	mu       sync.Mutex
	requests []*providers.CompletionRequest
}

// SendCompletion records req and returns the scripted outcome.
func (f *FakeProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, &providers.TimeoutError{Provider: "fake", Timeout: f.Delay}
		}
	}

	if f.Err != nil {
		return nil, f.Err
	}
	return &providers.CompletionResponse{
		Model:        req.Model,
		Content:      f.Reply,
		FinishReason: "STOP",
	}, nil
}

// Calls returns the number of completion requests received.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest returns the most recent request, or nil.
func (f *FakeProvider) LastRequest() *providers.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// HealthCheck returns HealthErr.
func (f *FakeProvider) HealthCheck(context.Context) error { return f.HealthErr }

// GetName returns "fake".
func (f *FakeProvider) GetName() string { return "fake" }

// GetType returns "fake".
func (f *FakeProvider) GetType() string { return "fake" }

// GetConfig returns an empty configuration.
func (f *FakeProvider) GetConfig() providers.ProviderConfig { return providers.ProviderConfig{} }

// IsHealthy reports whether HealthErr is nil.
func (f *FakeProvider) IsHealthy() bool { return f.HealthErr == nil }

// GetHealth returns the scripted health.
func (f *FakeProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: f.HealthErr == nil, LastError: f.HealthErr}
}

// Close does nothing.
func (f *FakeProvider) Close() error { return nil }
