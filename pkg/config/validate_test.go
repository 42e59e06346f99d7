package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(verr.Errors))
	}
	if !strings.Contains(verr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", verr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	negative := -1.0

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"route without slash", func(c *Config) { c.Server.Route = "generate" }, "server.route"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "server.read_timeout"},
		{"unknown mode", func(c *Config) { c.Gateway.Mode = "staging" }, "gateway.mode"},
		{"wildcard origin", func(c *Config) { c.Gateway.AllowedOrigins = []string{"*"} }, "gateway.allowed_origins"},
		{"origin with path", func(c *Config) { c.Gateway.AllowedOrigins = []string{"https://a.example/app"} }, "gateway.allowed_origins"},
		{"origin without scheme", func(c *Config) { c.Gateway.ProductionOrigin = "guionesparareels.netlify.app" }, "gateway.allowed_origins"},
		{"zero promise length", func(c *Config) { c.Gateway.MaxPromiseLength = -1 }, "gateway.max_promise_length"},
		{"unknown provider", func(c *Config) { c.Completion.Provider = "openai" }, "completion.provider"},
		{"bad base url", func(c *Config) { c.Completion.BaseURL = "not a url" }, "completion.base_url"},
		{"negative retries", func(c *Config) { c.Completion.MaxRetries = -1 }, "completion.max_retries"},
		{"bad threshold", func(c *Config) { c.Completion.SafetyThreshold = "BLOCK_SOME" }, "completion.safety_threshold"},
		{"bad temperature", func(c *Config) { c.Completion.Temperature = &negative }, "completion.temperature"},
		{"zero points", func(c *Config) { c.RateLimit.Points = -5 }, "rate_limit.points"},
		{"sub-second window", func(c *Config) { c.RateLimit.Duration = time.Millisecond }, "rate_limit.duration"},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "rate_limit.backend"},
		{"bad redis url", func(c *Config) { c.RateLimit.Redis.URL = "http://localhost:6379" }, "rate_limit.redis.url"},
		{"upstash without token", func(c *Config) { c.RateLimit.Redis.UpstashURL = "https://x.upstash.io" }, "rate_limit.redis.upstash_token"},
		{"audit unknown backend", func(c *Config) { c.Audit.Enabled = true; c.Audit.Backend = "postgres" }, "audit.backend"},
		{"audit bad schedule", func(c *Config) { c.Audit.Enabled = true; c.Audit.Retention.Schedule = "whenever" }, "audit.retention.schedule"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "loud" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"bad metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error for field %s", tt.wantField)
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	off := false
	cfg := Default()
	cfg.RateLimit.Enabled = &off
	cfg.RateLimit.Backend = "memcached"
	cfg.Audit.Enabled = false
	cfg.Audit.Backend = "postgres"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled sections should not be validated: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains string
	}{
		{
			name:     "empty errors",
			err:      ValidationError{},
			contains: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{Errors: []FieldError{
				{Field: "server.listen_address", Message: "required"},
			}},
			contains: "server.listen_address",
		},
		{
			name: "multiple errors",
			err: ValidationError{Errors: []FieldError{
				{Field: "server.listen_address", Message: "required"},
				{Field: "gateway.mode", Message: "invalid"},
			}},
			contains: "2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := tt.err.Error(); !strings.Contains(msg, tt.contains) {
				t.Errorf("expected error message to contain %q, got: %s", tt.contains, msg)
			}
		})
	}
}
