package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"guionesreels/ideagate/pkg/audit"
	auditstorage "guionesreels/ideagate/pkg/audit/storage"
	"guionesreels/ideagate/pkg/audit/retention"
	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/gateway"
	"guionesreels/ideagate/pkg/limits"
	"guionesreels/ideagate/pkg/providerfactory"
	"guionesreels/ideagate/pkg/providers"
	"guionesreels/ideagate/pkg/secrets"
	"guionesreels/ideagate/pkg/server"
	"guionesreels/ideagate/pkg/telemetry/health"
	"guionesreels/ideagate/pkg/telemetry/metrics"
)

// app holds the assembled components of a running gateway.
type app struct {
	server   *server.Server
	gateway  *gateway.Gateway
	provider providers.Provider
	limiter  *limits.Manager
	pruner   *retention.Pruner

	closers []func() error
}

// newApp builds every component from cfg. On error, whatever was already
// built is closed before returning. ctx bounds the background workers.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	secretsMgr, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return a, fmt.Errorf("failed to initialize secrets: %w", err)
	}
	a.closers = append(a.closers, secretsMgr.Close)

	provider, err := providerfactory.NewProviderWithHealthCheck(ctx, cfg.Completion, apiKeySource(cfg.Completion, secretsMgr))
	if err != nil {
		return a, fmt.Errorf("failed to initialize completion provider: %w", err)
	}
	a.provider = provider
	a.closers = append(a.closers, provider.Close)

	limiter, err := limits.NewManager(cfg.RateLimit, logger)
	if err != nil {
		return a, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	a.limiter = limiter
	a.closers = append(a.closers, limiter.Close)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout, Version)
	checker.RegisterCheck("ratelimit", limiter.Ping)
	checker.RegisterCheck("completion", func(context.Context) error {
		if provider.IsHealthy() {
			return nil
		}
		if lastErr := provider.GetHealth().LastError; lastErr != nil {
			return lastErr
		}
		return errors.New("provider unhealthy")
	})
	checker.SetObserver(func(name string, healthy bool) {
		if name == "completion" {
			collector.UpdateProviderHealth(provider.GetName(), healthy)
		}
	})

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		store, err := auditstorage.New(cfg.Audit)
		if err != nil {
			return a, fmt.Errorf("failed to initialize audit storage: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		checker.RegisterCheck("audit", store.Ping)

		recorder = audit.NewRecorder(store, audit.RecorderConfig{
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		})
		a.closers = append(a.closers, recorder.Close)

		a.pruner = retention.NewPruner(store, retention.FromConfig(cfg.Audit.Retention))
		if err := a.pruner.Start(ctx); err != nil {
			return a, fmt.Errorf("failed to start audit retention: %w", err)
		}
		a.closers = append(a.closers, func() error {
			a.pruner.Stop()
			return nil
		})
	}

	opts := gateway.OptionsFromConfig(cfg)
	opts.Limiter = limiter
	opts.Provider = provider
	opts.Recorder = recorder
	opts.Metrics = collector
	opts.Logger = logger

	a.gateway, err = gateway.New(opts)
	if err != nil {
		return a, fmt.Errorf("failed to initialize gateway: %w", err)
	}

	a.server = server.New(server.Options{
		Config:       cfg.Server,
		Gateway:      a.gateway,
		Health:       checker,
		HealthConfig: cfg.Telemetry.Health,
		Metrics:      collector,
		MetricsPath:  cfg.Telemetry.Metrics.Path,
		Logger:       logger,
	})

	return a, nil
}

// apiKeySource prefers a literal key from the configuration and otherwise
// resolves the named secret on every call.
func apiKeySource(cfg config.CompletionConfig, secretsMgr *secrets.Manager) providers.KeySource {
	if cfg.APIKey != "" {
		return providers.StaticKey(cfg.APIKey)
	}
	return secretsMgr.Key(cfg.APIKeySecret)
}

// Close releases components in reverse order of construction.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
