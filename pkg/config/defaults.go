package config

import "time"

// Deployment modes.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultRoute           = "/generate"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 45 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Gateway defaults
	DefaultMode                = ModeProduction
	DefaultProductionOrigin    = "https://guionesparareels.netlify.app"
	DefaultDevelopmentOrigin   = "http://localhost:8888"
	DefaultClientIPHeader      = "X-Nf-Client-Connection-Ip"
	DefaultMaxPromiseLength    = 500
	DefaultMaxBodyBytes        = int64(16384)
	DefaultForbiddenCharacters = "<>;{}"

	// Completion defaults
	DefaultCompletionProvider  = "gemini"
	DefaultCompletionBaseURL   = "https://generativelanguage.googleapis.com"
	DefaultCompletionKeySecret = "GEMINI_API_KEY"
	DefaultCompletionModel     = "gemini-1.5-flash"
	DefaultCompletionTimeout   = 30 * time.Second
	DefaultCompletionBurst     = 1
	DefaultSafetyThreshold     = "BLOCK_MEDIUM_AND_ABOVE"

	// Rate limit defaults
	DefaultRateLimitPoints       = 10
	DefaultRateLimitDuration     = 60 * time.Second
	DefaultRateLimitKeyPrefix    = "middleware"
	DefaultRateLimitBackend      = "redis"
	DefaultRedisAddress          = "127.0.0.1:6379"
	DefaultRedisDialTimeout      = 5 * time.Second
	DefaultRateLimitSQLitePath   = "data/ratelimit.db"
	DefaultSQLiteBusyTimeout     = 5 * time.Second
	DefaultMemoryMaxKeys         = 100000
	DefaultMemoryCleanupInterval = time.Minute

	// Audit defaults
	DefaultAuditBackend            = "sqlite"
	DefaultAuditSQLitePath         = "data/audit.db"
	DefaultAuditSQLiteMaxOpenConns = 10
	DefaultAuditSQLiteMaxIdleConns = 5
	DefaultAuditAsyncBuffer        = 1000
	DefaultAuditWriteTimeout       = 5 * time.Second
	DefaultAuditRetentionDays      = 30
	DefaultAuditRetentionSchedule  = "0 3 * * *"

	// Secrets defaults
	DefaultSecretsDirectory = "/run/secrets"
	DefaultSecretsCacheTTL  = time.Minute

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ideagate"
	DefaultLivenessPath     = "/health"
	DefaultReadinessPath    = "/ready"
	DefaultCheckTimeout     = 2 * time.Second
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.Route == "" {
		cfg.Server.Route = DefaultRoute
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	applyGatewayDefaults(&cfg.Gateway)
	applyCompletionDefaults(&cfg.Completion)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyAuditDefaults(&cfg.Audit)

	if cfg.Secrets.File.Directory == "" {
		cfg.Secrets.File.Directory = DefaultSecretsDirectory
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultCheckTimeout
	}
}

func applyGatewayDefaults(g *GatewayConfig) {
	if g.Mode == "" {
		g.Mode = DefaultMode
	}
	if g.ProductionOrigin == "" {
		g.ProductionOrigin = DefaultProductionOrigin
	}
	if g.DevelopmentOrigins == nil {
		g.DevelopmentOrigins = []string{DefaultDevelopmentOrigin}
	}
	if g.ClientIPHeader == "" {
		g.ClientIPHeader = DefaultClientIPHeader
	}
	if g.MaxPromiseLength == 0 {
		g.MaxPromiseLength = DefaultMaxPromiseLength
	}
	if g.MaxBodyBytes == 0 {
		g.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if g.ForbiddenCharacters == "" {
		g.ForbiddenCharacters = DefaultForbiddenCharacters
	}
}

func applyCompletionDefaults(c *CompletionConfig) {
	if c.Provider == "" {
		c.Provider = DefaultCompletionProvider
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultCompletionBaseURL
	}
	if c.APIKeySecret == "" {
		c.APIKeySecret = DefaultCompletionKeySecret
	}
	if c.Model == "" {
		c.Model = DefaultCompletionModel
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultCompletionTimeout
	}
	if c.Burst == 0 {
		c.Burst = DefaultCompletionBurst
	}
	if c.SafetyThreshold == "" {
		c.SafetyThreshold = DefaultSafetyThreshold
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.Points == 0 {
		r.Points = DefaultRateLimitPoints
	}
	if r.Duration == 0 {
		r.Duration = DefaultRateLimitDuration
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = DefaultRateLimitKeyPrefix
	}
	if r.Backend == "" {
		r.Backend = DefaultRateLimitBackend
	}
	if r.Redis.Address == "" {
		r.Redis.Address = DefaultRedisAddress
	}
	if r.Redis.DialTimeout == 0 {
		r.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if r.SQLite.Path == "" {
		r.SQLite.Path = DefaultRateLimitSQLitePath
	}
	if r.SQLite.BusyTimeout == 0 {
		r.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if r.Memory.MaxKeys == 0 {
		r.Memory.MaxKeys = DefaultMemoryMaxKeys
	}
	if r.Memory.CleanupInterval == 0 {
		r.Memory.CleanupInterval = DefaultMemoryCleanupInterval
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.Backend == "" {
		a.Backend = DefaultAuditBackend
	}
	if a.SQLite.Path == "" {
		a.SQLite.Path = DefaultAuditSQLitePath
	}
	if a.SQLite.MaxOpenConns == 0 {
		a.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if a.SQLite.MaxIdleConns == 0 {
		a.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if a.SQLite.BusyTimeout == 0 {
		a.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if a.AsyncBuffer == 0 {
		a.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if a.WriteTimeout == 0 {
		a.WriteTimeout = DefaultAuditWriteTimeout
	}
	if a.Retention.Days == 0 {
		a.Retention.Days = DefaultAuditRetentionDays
	}
	if a.Retention.Schedule == "" {
		a.Retention.Schedule = DefaultAuditRetentionSchedule
	}
}
