package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised for compatibility with the earlier
// serverless deployment.
const (
	EnvNodeEnv           = "NODE_ENV"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvUpstashRedisURL   = "UPSTASH_REDIS_REST_URL"
	EnvUpstashRedisToken = "UPSTASH_REDIS_REST_TOKEN"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the default configuration. It applies default values,
// validates the configuration, and returns any errors. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention IDEAGATE_SECTION_FIELD (e.g., IDEAGATE_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file (optional)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Deployment compatibility variables
	if val := os.Getenv(EnvNodeEnv); val != "" {
		if strings.EqualFold(val, ModeDevelopment) {
			cfg.Gateway.Mode = ModeDevelopment
		} else {
			cfg.Gateway.Mode = ModeProduction
		}
	}
	if val := os.Getenv(EnvUpstashRedisURL); val != "" {
		cfg.RateLimit.Redis.UpstashURL = val
	}
	if val := os.Getenv(EnvUpstashRedisToken); val != "" {
		cfg.RateLimit.Redis.UpstashToken = val
	}

	// Server overrides
	setString(&cfg.Server.ListenAddress, "IDEAGATE_SERVER_LISTEN_ADDRESS")
	setString(&cfg.Server.Route, "IDEAGATE_SERVER_ROUTE")
	setDuration(&cfg.Server.ReadTimeout, "IDEAGATE_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "IDEAGATE_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.RequestTimeout, "IDEAGATE_SERVER_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "IDEAGATE_SERVER_SHUTDOWN_TIMEOUT")

	// Gateway overrides
	setString(&cfg.Gateway.Mode, "IDEAGATE_GATEWAY_MODE")
	setString(&cfg.Gateway.ProductionOrigin, "IDEAGATE_GATEWAY_PRODUCTION_ORIGIN")
	if val := os.Getenv("IDEAGATE_GATEWAY_ALLOWED_ORIGINS"); val != "" {
		cfg.Gateway.AllowedOrigins = splitList(val)
	}
	setString(&cfg.Gateway.ClientIPHeader, "IDEAGATE_GATEWAY_CLIENT_IP_HEADER")
	if val := os.Getenv("IDEAGATE_GATEWAY_TRUST_CLIENT_IP_HEADER"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gateway.TrustClientIPHeader = &b
		}
	}
	setInt(&cfg.Gateway.MaxPromiseLength, "IDEAGATE_GATEWAY_MAX_PROMISE_LENGTH")

	// Completion overrides
	setString(&cfg.Completion.BaseURL, "IDEAGATE_COMPLETION_BASE_URL")
	setString(&cfg.Completion.APIKey, "IDEAGATE_COMPLETION_API_KEY")
	setString(&cfg.Completion.APIKeySecret, "IDEAGATE_COMPLETION_API_KEY_SECRET")
	setString(&cfg.Completion.Model, "IDEAGATE_COMPLETION_MODEL")
	setDuration(&cfg.Completion.Timeout, "IDEAGATE_COMPLETION_TIMEOUT")
	setInt(&cfg.Completion.MaxRetries, "IDEAGATE_COMPLETION_MAX_RETRIES")
	setString(&cfg.Completion.SafetyThreshold, "IDEAGATE_COMPLETION_SAFETY_THRESHOLD")
	if val := os.Getenv("IDEAGATE_COMPLETION_REQUESTS_PER_SECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Completion.RequestsPerSecond = f
		}
	}

	// Rate limit overrides
	if val := os.Getenv("IDEAGATE_RATE_LIMIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RateLimit.Enabled = &b
		}
	}
	setInt(&cfg.RateLimit.Points, "IDEAGATE_RATE_LIMIT_POINTS")
	setDuration(&cfg.RateLimit.Duration, "IDEAGATE_RATE_LIMIT_DURATION")
	setString(&cfg.RateLimit.KeyPrefix, "IDEAGATE_RATE_LIMIT_KEY_PREFIX")
	setBool(&cfg.RateLimit.FailOpen, "IDEAGATE_RATE_LIMIT_FAIL_OPEN")
	setString(&cfg.RateLimit.Backend, "IDEAGATE_RATE_LIMIT_BACKEND")
	setString(&cfg.RateLimit.Redis.URL, "IDEAGATE_RATE_LIMIT_REDIS_URL")
	setString(&cfg.RateLimit.Redis.Address, "IDEAGATE_RATE_LIMIT_REDIS_ADDRESS")
	setString(&cfg.RateLimit.Redis.Password, "IDEAGATE_RATE_LIMIT_REDIS_PASSWORD")
	setString(&cfg.RateLimit.SQLite.Path, "IDEAGATE_RATE_LIMIT_SQLITE_PATH")

	// Audit overrides
	setBool(&cfg.Audit.Enabled, "IDEAGATE_AUDIT_ENABLED")
	setString(&cfg.Audit.Backend, "IDEAGATE_AUDIT_BACKEND")
	setString(&cfg.Audit.SQLite.Path, "IDEAGATE_AUDIT_SQLITE_PATH")
	setInt(&cfg.Audit.Retention.Days, "IDEAGATE_AUDIT_RETENTION_DAYS")

	// Secrets overrides
	setString(&cfg.Secrets.EnvPrefix, "IDEAGATE_SECRETS_ENV_PREFIX")
	setDuration(&cfg.Secrets.CacheTTL, "IDEAGATE_SECRETS_CACHE_TTL")
	setBool(&cfg.Secrets.File.Enabled, "IDEAGATE_SECRETS_FILE_ENABLED")
	setString(&cfg.Secrets.File.Directory, "IDEAGATE_SECRETS_FILE_DIRECTORY")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "IDEAGATE_TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "IDEAGATE_TELEMETRY_LOGGING_FORMAT")
	if val := os.Getenv("IDEAGATE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	setString(&cfg.Telemetry.Metrics.Path, "IDEAGATE_TELEMETRY_METRICS_PATH")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
