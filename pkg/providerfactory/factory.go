// Package providerfactory builds the configured completion provider.
package providerfactory

import (
	"context"
	"fmt"
	"log/slog"

	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/providers"
	"guionesreels/ideagate/pkg/providers/gemini"
)

// ProviderConfig converts the completion section of the configuration into
// the adapter-level configuration.
func ProviderConfig(cfg config.CompletionConfig) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:              cfg.Provider,
		Type:              cfg.Provider,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}
}

// NewProvider creates the provider named by cfg.Provider. The API key is
// resolved through keys on every request.
//
// Supported provider types:
//   - "gemini": Google Generative Language API
//
// Example:
//
//	provider, err := providerfactory.NewProvider(cfg.Completion, secretsManager.Key(name))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(cfg config.CompletionConfig, keys providers.KeySource) (providers.Provider, error) {
	pc := ProviderConfig(cfg)

	slog.Debug("creating provider",
		"type", pc.Type,
		"model", pc.Model,
	)

	var (
		provider providers.Provider
		err      error
	)

	switch pc.Type {
	case "gemini", "":
		provider, err = gemini.NewProvider(pc, keys)

	default:
		return nil, &providers.ConfigError{
			Provider: pc.Name,
			Field:    "provider",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: gemini)", pc.Type),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", pc.Name, err)
	}

	return provider, nil
}

// NewProviderWithHealthCheck creates a provider and starts its background
// health checker, which stops when ctx is cancelled or the provider is closed.
func NewProviderWithHealthCheck(ctx context.Context, cfg config.CompletionConfig, keys providers.KeySource) (providers.Provider, error) {
	provider, err := NewProvider(cfg, keys)
	if err != nil {
		return nil, err
	}

	type healthCheckStarter interface {
		StartHealthChecker(context.Context)
	}

	if hcs, ok := provider.(healthCheckStarter); ok {
		hcs.StartHealthChecker(ctx)
		slog.Debug("health checker started", "provider", provider.GetName())
	}

	return provider, nil
}
