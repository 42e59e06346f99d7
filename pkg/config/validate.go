package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateCompletion(&cfg.Completion)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if !strings.HasPrefix(cfg.Route, "/") {
		errs = append(errs, FieldError{
			Field:   "server.route",
			Message: fmt.Sprintf("route %q must start with '/'", cfg.Route),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validateGateway validates the admission pipeline configuration.
func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.Mode != ModeProduction && cfg.Mode != ModeDevelopment {
		errs = append(errs, FieldError{
			Field:   "gateway.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'production' or 'development'", cfg.Mode),
		})
	}

	origins := append([]string{cfg.ProductionOrigin}, cfg.DevelopmentOrigins...)
	origins = append(origins, cfg.AllowedOrigins...)
	for _, origin := range origins {
		if origin == "*" {
			errs = append(errs, FieldError{
				Field:   "gateway.allowed_origins",
				Message: "wildcard origin is not allowed",
			})
			continue
		}
		if err := validateOrigin(origin); err != nil {
			errs = append(errs, FieldError{
				Field:   "gateway.allowed_origins",
				Message: err.Error(),
			})
		}
	}

	if cfg.ClientIPHeader == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.client_ip_header",
			Message: "client IP header is required",
		})
	}
	if cfg.MaxPromiseLength < 1 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_promise_length",
			Message: "max promise length must be positive",
		})
	}
	if cfg.MaxBodyBytes < 1 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	return errs
}

// validateOrigin checks that an origin is a bare scheme://host[:port].
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %v", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid origin %q: scheme must be http or https", origin)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid origin %q: host is required", origin)
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" {
		return fmt.Errorf("invalid origin %q: must not contain a path or query", origin)
	}
	return nil
}

// validateCompletion validates the completion service configuration.
func validateCompletion(cfg *CompletionConfig) []FieldError {
	var errs []FieldError

	if cfg.Provider != "gemini" {
		errs = append(errs, FieldError{
			Field:   "completion.provider",
			Message: fmt.Sprintf("unsupported provider %q: must be 'gemini'", cfg.Provider),
		})
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "completion.base_url",
			Message: fmt.Sprintf("invalid base URL %q", cfg.BaseURL),
		})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "completion.model",
			Message: "model is required",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "completion.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "completion.max_retries",
			Message: "max retries must be non-negative",
		})
	}
	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{
			Field:   "completion.requests_per_second",
			Message: "requests per second must be non-negative",
		})
	}
	if cfg.Burst < 1 {
		errs = append(errs, FieldError{
			Field:   "completion.burst",
			Message: "burst must be at least 1",
		})
	}

	validThresholds := map[string]bool{
		"BLOCK_NONE":             true,
		"BLOCK_ONLY_HIGH":        true,
		"BLOCK_MEDIUM_AND_ABOVE": true,
		"BLOCK_LOW_AND_ABOVE":    true,
	}
	if !validThresholds[cfg.SafetyThreshold] {
		errs = append(errs, FieldError{
			Field:   "completion.safety_threshold",
			Message: fmt.Sprintf("invalid safety threshold %q", cfg.SafetyThreshold),
		})
	}
	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		errs = append(errs, FieldError{
			Field:   "completion.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if cfg.MaxOutputTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "completion.max_output_tokens",
			Message: "max output tokens must be non-negative",
		})
	}

	return errs
}

// validateRateLimit validates rate limiting configuration.
func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if !cfg.IsEnabled() {
		return errs
	}

	if cfg.Points < 1 {
		errs = append(errs, FieldError{
			Field:   "rate_limit.points",
			Message: "points must be at least 1",
		})
	}
	if cfg.Duration < time.Second {
		errs = append(errs, FieldError{
			Field:   "rate_limit.duration",
			Message: "duration must be at least 1s",
		})
	}

	switch cfg.Backend {
	case "redis":
		if cfg.Redis.URL != "" {
			if u, err := url.Parse(cfg.Redis.URL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
				errs = append(errs, FieldError{
					Field:   "rate_limit.redis.url",
					Message: "URL must use the redis:// or rediss:// scheme",
				})
			}
		}
		if cfg.Redis.UpstashURL != "" && cfg.Redis.UpstashToken == "" {
			errs = append(errs, FieldError{
				Field:   "rate_limit.redis.upstash_token",
				Message: "token is required when an Upstash URL is set",
			})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.redis.db",
				Message: "db must be non-negative",
			})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "rate_limit.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
	case "memory":
		if cfg.Memory.MaxKeys < 1 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.memory.max_keys",
				Message: "max keys must be positive",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rate_limit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'redis', 'sqlite', or 'memory'", cfg.Backend),
		})
	}

	return errs
}

// validateAudit validates audit trail configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.async_buffer",
			Message: "async buffer must be positive",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.retention.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	paths := map[string]string{
		"telemetry.metrics.path":          cfg.Metrics.Path,
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
	}
	for field, p := range paths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("path %q must start with '/'", p),
			})
		}
	}

	return errs
}
