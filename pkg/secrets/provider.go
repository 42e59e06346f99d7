package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no provider holds the requested secret.
var ErrNotFound = errors.New("secret not found")

// SecretProvider retrieves secrets from a backend.
//
// Providers are chained by Manager with priority-based fallback.
type SecretProvider interface {
	// GetSecret retrieves a secret by name. A missing secret yields an error
	// wrapping ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns the secret names available from this provider.
	// Values are never included.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the provider name (env, file).
	Provider() string

	// Supports reports whether this provider currently holds name.
	Supports(name string) bool
}

// RefreshableProvider can reload secrets without restart.
type RefreshableProvider interface {
	SecretProvider

	// Refresh drops cached values so the next read hits the backend.
	Refresh(ctx context.Context) error
}
