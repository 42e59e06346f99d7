package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"guionesreels/ideagate/pkg/config"
)

// Manager resolves secrets through an ordered list of providers.
//
// The first provider that supports a name and returns a value wins. Values
// are cached for the configured TTL; file changes clear the cache.
type Manager struct {
	providers []SecretProvider
	cache     *Cache
	closers   []func() error
}

// NewManager creates a manager over providers, tried in order.
func NewManager(providers []SecretProvider, cacheConfig CacheConfig) *Manager {
	return &Manager{
		providers: providers,
		cache:     NewCache(cacheConfig),
	}
}

// NewManagerFromConfig builds the file provider (when enabled, first) and the
// environment provider from cfg.
func NewManagerFromConfig(cfg config.SecretsConfig) (*Manager, error) {
	var providers []SecretProvider
	var file *FileProvider

	if cfg.File.Enabled {
		var err error
		file, err = NewFileProvider(cfg.File.Directory, cfg.File.Watch)
		if err != nil {
			return nil, err
		}
		providers = append(providers, file)
	}
	providers = append(providers, NewEnvProvider(cfg.EnvPrefix))

	m := NewManager(providers, CacheConfig{TTL: cfg.CacheTTL})
	if file != nil {
		file.OnChange(m.cache.Clear)
		m.closers = append(m.closers, file.Close)
	}
	return m, nil
}

// GetSecret retrieves name from the first provider that has it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if value, ok := m.cache.Get(name); ok {
		return value, nil
	}

	var errs []error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}

		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			slog.Debug("secret provider failed",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", provider.Provider(), err))
			continue
		}

		m.cache.Set(name, value)
		return value, nil
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("failed to get secret %q: %w", name, errors.Join(errs...))
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Key returns a handle that resolves name on every call. It satisfies
// providers.KeySource.
func (m *Manager) Key(name string) *Key {
	return &Key{manager: m, name: name}
}

// Key is a named secret resolved lazily.
type Key struct {
	manager *Manager
	name    string
}

// APIKey resolves the secret.
func (k *Key) APIKey(ctx context.Context) (string, error) {
	return k.manager.GetSecret(ctx, k.name)
}

// Name returns the secret name.
func (k *Key) Name() string {
	return k.name
}

// Refresh reloads all refreshable providers and clears the cache.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []string
	for _, provider := range m.providers {
		refreshable, ok := provider.(RefreshableProvider)
		if !ok {
			continue
		}
		if err := refreshable.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", provider.Provider(), err))
		}
	}

	m.cache.Clear()

	if len(errs) > 0 {
		return fmt.Errorf("failed to refresh some providers: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ListSecrets returns the sorted, de-duplicated secret names of all providers.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)

	for _, provider := range m.providers {
		names, err := provider.ListSecrets(ctx)
		if err != nil {
			slog.Warn("failed to list secrets",
				"provider", provider.Provider(),
				"error", err,
			)
			continue
		}
		for _, name := range names {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases provider resources such as file watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// redactSecretName shortens a secret name for logs.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
