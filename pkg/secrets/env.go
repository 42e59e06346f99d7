package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names map to variables by upper-casing, replacing hyphens with
// underscores, and prepending Prefix:
//
//	"gemini-api-key" -> "<Prefix>GEMINI_API_KEY"
//	"GEMINI_API_KEY" -> "<Prefix>GEMINI_API_KEY"
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the variable for name. A variable that is unset or empty
// counts as missing.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.envVar(name)

	value, ok := os.LookupEnv(envVar)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w in environment: %s", ErrNotFound, envVar)
	}

	return strings.TrimSpace(value), nil
}

// ListSecrets returns the names of non-empty variables carrying Prefix.
// Without a prefix nothing is listed, since every variable would match.
func (p *EnvProvider) ListSecrets(ctx context.Context) ([]string, error) {
	if p.Prefix == "" {
		return nil, nil
	}

	var names []string
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || value == "" || !strings.HasPrefix(key, p.Prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(key, p.Prefix))
	}

	return names, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports reports whether the variable for name is set and non-empty.
func (p *EnvProvider) Supports(name string) bool {
	value, ok := os.LookupEnv(p.envVar(name))
	return ok && strings.TrimSpace(value) != ""
}

func (p *EnvProvider) envVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
