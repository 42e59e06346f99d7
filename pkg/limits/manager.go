package limits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/limits/ratelimit"
	"guionesreels/ideagate/pkg/limits/storage"
)

// Manager is the gateway-facing rate limiter. It owns the counter backend,
// applies the enabled and fail-open switches, and logs backend failures.
//
// # Example
//
//	manager, err := limits.NewManager(cfg.RateLimit, logger)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	result, err := manager.Consume(ctx, clientIP)
type Manager struct {
	limiter  *ratelimit.Limiter
	backend  storage.Backend
	enabled  bool
	failOpen bool
	logger   *slog.Logger
}

// Options configures a Manager built around an existing backend.
type Options struct {
	// Backend stores the counters. Required when Enabled is true.
	Backend storage.Backend

	// Limiter configures the budget.
	Limiter ratelimit.Config

	// Enabled turns limiting on. A disabled manager allows every request.
	Enabled bool

	// FailOpen admits requests when the backend is unavailable.
	FailOpen bool

	// Logger receives backend failure reports. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewManager builds the backend selected by cfg and wraps it in a Manager.
func NewManager(cfg config.RateLimitConfig, logger *slog.Logger) (*Manager, error) {
	if !cfg.IsEnabled() {
		return NewManagerWithOptions(Options{Enabled: false, Logger: logger})
	}

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	m, err := NewManagerWithOptions(Options{
		Backend: backend,
		Limiter: ratelimit.Config{
			Points:    cfg.Points,
			Duration:  cfg.Duration,
			KeyPrefix: cfg.KeyPrefix,
		},
		Enabled:  true,
		FailOpen: cfg.FailOpen,
		Logger:   logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	return m, nil
}

// NewManagerWithOptions creates a Manager from explicit options.
func NewManagerWithOptions(opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Manager{
		backend:  opts.Backend,
		enabled:  opts.Enabled,
		failOpen: opts.FailOpen,
		logger:   opts.Logger.With("component", "ratelimit"),
	}

	if !opts.Enabled {
		return m, nil
	}

	limiter, err := ratelimit.NewLimiter(opts.Backend, opts.Limiter)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	m.limiter = limiter

	return m, nil
}

// NewBackend creates the counter backend selected by cfg.Backend.
func NewBackend(cfg config.RateLimitConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "redis":
		return storage.NewRedisBackend(storage.RedisBackendConfig{
			URL:          cfg.Redis.URL,
			Address:      cfg.Redis.Address,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TLS:          cfg.Redis.TLS,
			UpstashURL:   cfg.Redis.UpstashURL,
			UpstashToken: cfg.Redis.UpstashToken,
			DialTimeout:  cfg.Redis.DialTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})
	case "sqlite":
		return storage.NewSQLiteBackendWithConfig(storage.SQLiteBackendConfig{
			DBPath:      cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryBackendWithConfig(storage.MemoryBackendConfig{
			MaxEntries:      cfg.Memory.MaxKeys,
			CleanupInterval: cfg.Memory.CleanupInterval,
		}), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}

// Consume spends one point of identifier's budget.
//
// An exhausted budget returns *ratelimit.ExceededError. A backend failure
// returns the wrapped error, unless the manager fails open, in which case
// the request is admitted with a nil result.
func (m *Manager) Consume(ctx context.Context, identifier string) (*ratelimit.CheckResult, error) {
	if !m.enabled {
		return nil, nil
	}

	result, err := m.limiter.Consume(ctx, identifier)
	if err == nil {
		return result, nil
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		return result, err
	}

	if m.failOpen {
		m.logger.WarnContext(ctx, "rate limit backend unavailable, admitting request",
			"error", err)
		return nil, nil
	}

	m.logger.ErrorContext(ctx, "rate limit backend unavailable", "error", err)
	return nil, err
}

// Enabled reports whether requests are being limited.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Limits returns the configured budget, or the zero Config when disabled.
func (m *Manager) Limits() ratelimit.Config {
	if m.limiter == nil {
		return ratelimit.Config{}
	}
	return m.limiter.Config()
}

// Reset clears identifier's budget.
func (m *Manager) Reset(ctx context.Context, identifier string) error {
	if !m.enabled {
		return nil
	}
	return m.limiter.Reset(ctx, identifier)
}

// Ping checks the backend. A disabled manager is always healthy.
func (m *Manager) Ping(ctx context.Context) error {
	if m.backend == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.backend.Ping(ctx)
}

// Close releases the backend.
func (m *Manager) Close() error {
	if m.backend == nil {
		return nil
	}
	return m.backend.Close()
}
