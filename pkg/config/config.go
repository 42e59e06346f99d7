package config

import (
	"strings"
	"time"
)

// Config is the root configuration structure for the ideagate gateway.
// It contains all configuration sections for the HTTP server, the admission
// pipeline, the completion service, rate limiting, auditing, secrets, and
// telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and the route the gateway is mounted on.
	Server ServerConfig `yaml:"server"`

	// Gateway contains the admission pipeline settings: allowed origins,
	// client identification, and input validation limits.
	Gateway GatewayConfig `yaml:"gateway"`

	// Completion contains configuration for the upstream generative-language
	// model used to produce reel ideas.
	Completion CompletionConfig `yaml:"completion"`

	// RateLimit contains configuration for per-client request budgets and
	// the shared counter store that backs them.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Audit contains configuration for the per-request audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Secrets contains configuration for resolving credentials from the
	// environment or mounted files.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for logging, metrics, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// Route is the path the generate endpoint is mounted on.
	// Default: "/generate"
	Route string `yaml:"route"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must cover the upstream completion call.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds the total handling time of a single request.
	// Requests exceeding it receive 504 Gateway Timeout.
	// Default: 45s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// GatewayConfig contains configuration for the request admission pipeline.
type GatewayConfig struct {
	// Mode selects the deployment environment.
	// Options: "production", "development"
	// In development mode the development origins are also allowed.
	// Default: "production"
	Mode string `yaml:"mode"`

	// ProductionOrigin is the origin of the deployed front end.
	// Default: "https://guionesparareels.netlify.app"
	ProductionOrigin string `yaml:"production_origin"`

	// DevelopmentOrigins are additionally allowed when Mode is "development".
	// Default: ["http://localhost:8888"]
	DevelopmentOrigins []string `yaml:"development_origins"`

	// AllowedOrigins are extra origins allowed in every mode.
	// Default: []
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ClientIPHeader is the header set by the edge that carries the client
	// connection IP. When absent, the transport peer address is used.
	// Default: "X-Nf-Client-Connection-Ip"
	ClientIPHeader string `yaml:"client_ip_header"`

	// TrustClientIPHeader keys rate limiting on ClientIPHeader. Leave it on
	// only behind a proxy that overwrites the header on every request; a
	// directly exposed gateway must turn it off, or any client can pick its
	// own budget key.
	// Default: true
	TrustClientIPHeader *bool `yaml:"trust_client_ip_header"`

	// MaxPromiseLength is the maximum length, in characters, of the promesa field.
	// Default: 500
	MaxPromiseLength int `yaml:"max_promise_length"`

	// MaxBodyBytes caps the request body size read by the gateway.
	// Default: 16384
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ForbiddenCharacters lists characters that cause an input to be rejected.
	// Default: "<>;{}"
	ForbiddenCharacters string `yaml:"forbidden_characters"`
}

// AllowedOriginSet returns the origins accepted by the gateway. It is computed
// once at startup and injected into the gateway.
func (g GatewayConfig) AllowedOriginSet() []string {
	seen := make(map[string]bool)
	var origins []string
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		origins = append(origins, o)
	}

	add(g.ProductionOrigin)
	if g.IsDevelopment() {
		for _, o := range g.DevelopmentOrigins {
			add(o)
		}
	}
	for _, o := range g.AllowedOrigins {
		add(o)
	}
	return origins
}

// ClientIPHeaderTrusted reports whether ClientIPHeader identifies clients.
func (g GatewayConfig) ClientIPHeaderTrusted() bool {
	return g.TrustClientIPHeader == nil || *g.TrustClientIPHeader
}

// IsDevelopment reports whether the gateway runs in development mode.
func (g GatewayConfig) IsDevelopment() bool {
	return g.Mode == ModeDevelopment
}

// CompletionConfig contains configuration for the upstream completion service.
type CompletionConfig struct {
	// Provider selects the completion adapter.
	// Options: "gemini"
	// Default: "gemini"
	Provider string `yaml:"provider"`

	// BaseURL is the base URL of the provider API.
	// Default: "https://generativelanguage.googleapis.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the literal API key. Prefer APIKeySecret so the key is never
	// written to the configuration file.
	APIKey string `yaml:"api_key"`

	// APIKeySecret is the name of the secret holding the API key, resolved
	// through the secrets providers on every call.
	// Default: "GEMINI_API_KEY"
	APIKeySecret string `yaml:"api_key_secret"`

	// Model is the model identifier sent to the provider.
	// Default: "gemini-1.5-flash"
	Model string `yaml:"model"`

	// Timeout is the maximum duration of a single upstream call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after a failed upstream call.
	// Default: 0 (single attempt)
	MaxRetries int `yaml:"max_retries"`

	// RequestsPerSecond throttles outgoing calls to protect the API quota.
	// Zero disables throttling.
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the throttle bucket size when RequestsPerSecond is set.
	// Default: 1
	Burst int `yaml:"burst"`

	// SafetyThreshold is applied to every harm category of the safety policy.
	// Options: "BLOCK_NONE", "BLOCK_ONLY_HIGH", "BLOCK_MEDIUM_AND_ABOVE", "BLOCK_LOW_AND_ABOVE"
	// Default: "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThreshold string `yaml:"safety_threshold"`

	// Temperature overrides the provider's sampling temperature when set.
	Temperature *float64 `yaml:"temperature"`

	// MaxOutputTokens caps the completion length. Zero leaves the provider default.
	MaxOutputTokens int `yaml:"max_output_tokens"`
}

// RateLimitConfig contains configuration for per-client rate limiting.
type RateLimitConfig struct {
	// Enabled controls whether requests are rate limited.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Points is the number of requests allowed per window and client.
	// Default: 10
	Points int `yaml:"points"`

	// Duration is the length of the fixed window.
	// Default: 60s
	Duration time.Duration `yaml:"duration"`

	// KeyPrefix namespaces the counters in the shared store.
	// Default: "middleware"
	KeyPrefix string `yaml:"key_prefix"`

	// FailOpen admits requests when the counter store is unavailable instead
	// of failing them with 500.
	// Default: false
	FailOpen bool `yaml:"fail_open"`

	// Backend selects the counter store.
	// Options: "redis", "sqlite", "memory"
	// Default: "redis"
	Backend string `yaml:"backend"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`

	// SQLite configures the sqlite backend.
	SQLite RateLimitSQLiteConfig `yaml:"sqlite"`

	// Memory configures the in-process backend.
	Memory MemoryConfig `yaml:"memory"`
}

// IsEnabled reports whether rate limiting is enabled.
func (r RateLimitConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RedisConfig configures the connection to the shared counter store.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection URL. Takes precedence over
	// the discrete fields below.
	URL string `yaml:"url"`

	// Address is the "host:port" of the server.
	// Default: "127.0.0.1:6379"
	Address string `yaml:"address"`

	// Username for ACL authentication.
	Username string `yaml:"username"`

	// Password for authentication.
	Password string `yaml:"password"`

	// DB is the logical database index.
	DB int `yaml:"db"`

	// TLS enables TLS to the server.
	TLS bool `yaml:"tls"`

	// UpstashURL is the Upstash REST URL. Its host is used with TLS on the
	// native protocol port.
	UpstashURL string `yaml:"upstash_url"`

	// UpstashToken is the Upstash REST token, used as the AUTH password.
	UpstashToken string `yaml:"upstash_token"`

	// DialTimeout bounds connection establishment.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// PoolSize is the maximum number of socket connections. Zero uses the
	// client default.
	PoolSize int `yaml:"pool_size"`
}

// RateLimitSQLiteConfig configures the sqlite counter backend.
type RateLimitSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/ratelimit.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// MemoryConfig configures the in-process counter backend.
type MemoryConfig struct {
	// MaxKeys bounds the number of tracked clients. Past it, the window
	// closest to expiry is dropped and that client's budget starts over.
	// Default: 100000
	MaxKeys int `yaml:"max_keys"`

	// CleanupInterval is how often expired windows are removed.
	// Default: 1m
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// AuditConfig contains configuration for the per-request audit trail.
type AuditConfig struct {
	// Enabled controls whether audit records are written.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the audit store.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite audit store.
	SQLite AuditSQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the size of the asynchronous write queue.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single store write and how long a record may wait
	// for queue space before it is dropped.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures automatic pruning.
	Retention RetentionConfig `yaml:"retention"`
}

// AuditSQLiteConfig configures the sqlite audit store.
type AuditSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures pruning of audit records.
type RetentionConfig struct {
	// Days is how long records are kept. A negative value keeps records forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records. Zero means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is the cron expression for pruning runs.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// SecretsConfig configures credential resolution.
type SecretsConfig struct {
	// EnvPrefix is prepended to secret names when reading the environment.
	// Default: ""
	EnvPrefix string `yaml:"env_prefix"`

	// CacheTTL is how long a resolved secret is reused. Zero disables caching.
	// File changes seen by the watcher invalidate the cache immediately.
	// Default: 1m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// File configures secrets read from mounted files.
	File FileSecretsConfig `yaml:"file"`
}

// FileSecretsConfig configures the file secrets provider.
type FileSecretsConfig struct {
	// Enabled controls whether secrets are read from files.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Directory holds one file per secret, named after the secret.
	// Default: "/run/secrets"
	Directory string `yaml:"directory"`

	// Watch reloads secrets when files change.
	// Default: false
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks API keys, tokens, emails, and IP addresses in log output.
	// Default: true
	RedactPII *bool `yaml:"redact_pii"`
}

// ShouldRedact reports whether PII redaction is enabled.
func (l LoggingConfig) ShouldRedact() bool {
	return l.RedactPII == nil || *l.RedactPII
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "ideagate"
	Namespace string `yaml:"namespace"`
}

// IsEnabled reports whether metrics are enabled.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// HealthConfig contains configuration for health endpoints.
type HealthConfig struct {
	// LivenessPath is the liveness endpoint path.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the readiness endpoint path.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
