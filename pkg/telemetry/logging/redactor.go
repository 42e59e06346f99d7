package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials and personal data in log attributes.
type Redactor struct {
	patterns []*redactPattern
	safeKeys map[string]bool
	enabled  bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternGoogleKey   = "google_api_key"
	PatternAPIKey      = "api_key"
	PatternEmail       = "email"
	PatternIPv6        = "ipv6"
	PatternIPv4        = "ipv4"
)

// defaultPatterns run in order; earlier patterns win on overlapping text.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternGoogleKey, `AIza[0-9A-Za-z_\-]{20,}`, "AIza***"},
	{PatternAPIKey, `(?i)(api[-_]?key|key)=[^\s&"]+`, "$1=***"},
	{PatternEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***"},
	{PatternIPv6, `\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`, "****:****"},
	{PatternIPv4, `\b(?:\d{1,3}\.){3}\d{1,3}\b`, "*.*.*.*"},
}

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"api_key":        true,
	"apikey":         true,
	"x-goog-api-key": true,
	"token":          true,
	"secret":         true,
	"password":       true,
	"authorization":  true,
}

// NewRedactor creates a Redactor with the built-in patterns. A disabled
// Redactor passes every attribute through unchanged.
func NewRedactor(enabled bool) *Redactor {
	r := &Redactor{
		enabled: enabled,
		// Server addresses are configuration, not client data.
		safeKeys: map[string]bool{
			"addr":           true,
			"listen_address": true,
		},
	}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	return r
}

// RedactString masks every pattern match in value.
func (r *Redactor) RedactString(value string) string {
	if !r.enabled || value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if !r.enabled || r.safeKeys[a.Key] {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}
