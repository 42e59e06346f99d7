package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript opens a window on the first hit of a key and returns the
// new count together with the remaining window in milliseconds. Running both
// commands in one script keeps the increment and the expiry atomic.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// upstashPort is the native-protocol port exposed by Upstash databases.
const upstashPort = "6379"

// RedisBackend implements Backend on a Redis-compatible server. Counters are
// shared by every instance pointing at the same server, so limits hold across
// horizontally scaled deployments.
type RedisBackend struct {
	client *redis.Client
	now    func() time.Time
}

// RedisBackendConfig configures the Redis backend.
type RedisBackendConfig struct {
	// URL is a redis:// or rediss:// URL. Takes precedence over the other fields.
	URL string

	// Address is the "host:port" of the server.
	Address string

	// Username and Password authenticate the connection.
	Username string
	Password string

	// DB is the logical database index.
	DB int

	// TLS enables TLS to the server.
	TLS bool

	// UpstashURL and UpstashToken configure an Upstash database from its REST
	// credentials. Used when URL is empty.
	UpstashURL   string
	UpstashToken string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// PoolSize is the maximum number of socket connections.
	PoolSize int
}

// NewRedisBackend creates a Redis backend from configuration. The connection
// is established lazily; call Ping to verify it.
func NewRedisBackend(cfg RedisBackendConfig) (*RedisBackend, error) {
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisBackendWithClient(redis.NewClient(opts)), nil
}

// NewRedisBackendWithClient wraps an existing client. The backend takes
// ownership of the client and closes it on Close.
func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, now: time.Now}
}

// RedisOptions builds client options from configuration.
func RedisOptions(cfg RedisBackendConfig) (*redis.Options, error) {
	var opts *redis.Options

	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = parsed

	case cfg.UpstashURL != "":
		u, err := url.Parse(cfg.UpstashURL)
		if err != nil || u.Hostname() == "" {
			return nil, fmt.Errorf("invalid Upstash URL %q", cfg.UpstashURL)
		}
		host := u.Hostname()
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, upstashPort),
			Username: "default",
			Password: cfg.UpstashToken,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: host,
			},
		}

	default:
		if cfg.Address == "" {
			return nil, fmt.Errorf("redis address cannot be empty")
		}
		opts = &redis.Options{
			Addr:     cfg.Address,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
		if cfg.TLS {
			host, _, err := net.SplitHostPort(cfg.Address)
			if err != nil {
				host = cfg.Address
			}
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
		}
	}

	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	return opts, nil
}

// Increment adds one to the counter for key, opening a new window if needed.
func (r *RedisBackend) Increment(ctx context.Context, key string, window time.Duration) (*Counter, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}

	vals, err := incrementScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter %q: %w", key, err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("unexpected increment reply for %q: %v", key, vals)
	}

	ttl := time.Duration(vals[1]) * time.Millisecond
	return &Counter{Key: key, Count: vals[0], ResetAt: r.now().Add(ttl)}, nil
}

// Reset removes the counter for key.
func (r *RedisBackend) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset counter %q: %w", key, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
