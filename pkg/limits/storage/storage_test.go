package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// backendHarness builds a backend and a function that moves its clock.
type backendHarness struct {
	name  string
	setup func(t *testing.T) (Backend, func(time.Duration))
}

func harnesses() []backendHarness {
	return []backendHarness{
		{
			name: "memory",
			setup: func(t *testing.T) (Backend, func(time.Duration)) {
				clock := newFakeClock()
				b := NewMemoryBackend()
				b.now = clock.Now
				t.Cleanup(func() { b.Close() })
				return b, clock.Advance
			},
		},
		{
			name: "sqlite",
			setup: func(t *testing.T) (Backend, func(time.Duration)) {
				clock := newFakeClock()
				b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "ratelimit.db"))
				if err != nil {
					t.Fatalf("NewSQLiteBackend failed: %v", err)
				}
				b.now = clock.Now
				t.Cleanup(func() { b.Close() })
				return b, clock.Advance
			},
		},
		{
			name: "redis",
			setup: func(t *testing.T) (Backend, func(time.Duration)) {
				mr := miniredis.RunT(t)
				b, err := NewRedisBackend(RedisBackendConfig{Address: mr.Addr()})
				if err != nil {
					t.Fatalf("NewRedisBackend failed: %v", err)
				}
				t.Cleanup(func() { b.Close() })
				return b, mr.FastForward
			},
		},
	}
}

func TestBackend_IncrementWithinWindow(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, _ := h.setup(t)
			ctx := context.Background()

			for i := int64(1); i <= 11; i++ {
				counter, err := backend.Increment(ctx, "middleware:203.0.113.7", time.Minute)
				if err != nil {
					t.Fatalf("Increment %d failed: %v", i, err)
				}
				if counter.Count != i {
					t.Errorf("Increment %d: count = %d, want %d", i, counter.Count, i)
				}
			}
		})
	}
}

func TestBackend_KeysAreIndependent(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, _ := h.setup(t)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				if _, err := backend.Increment(ctx, "middleware:a", time.Minute); err != nil {
					t.Fatalf("Increment failed: %v", err)
				}
			}
			counter, err := backend.Increment(ctx, "middleware:b", time.Minute)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if counter.Count != 1 {
				t.Errorf("count for fresh key = %d, want 1", counter.Count)
			}
		})
	}
}

func TestBackend_WindowExpiry(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, advance := h.setup(t)
			ctx := context.Background()

			first, err := backend.Increment(ctx, "middleware:c", time.Minute)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if first.ResetAt.IsZero() {
				t.Fatal("expected ResetAt to be set")
			}
			if _, err := backend.Increment(ctx, "middleware:c", time.Minute); err != nil {
				t.Fatalf("Increment failed: %v", err)
			}

			advance(61 * time.Second)

			counter, err := backend.Increment(ctx, "middleware:c", time.Minute)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if counter.Count != 1 {
				t.Errorf("count after window expiry = %d, want 1", counter.Count)
			}
		})
	}
}

func TestBackend_Reset(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, _ := h.setup(t)
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				if _, err := backend.Increment(ctx, "middleware:d", time.Minute); err != nil {
					t.Fatalf("Increment failed: %v", err)
				}
			}
			if err := backend.Reset(ctx, "middleware:d"); err != nil {
				t.Fatalf("Reset failed: %v", err)
			}
			counter, err := backend.Increment(ctx, "middleware:d", time.Minute)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if counter.Count != 1 {
				t.Errorf("count after reset = %d, want 1", counter.Count)
			}
		})
	}
}

func TestBackend_InvalidArguments(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, _ := h.setup(t)
			ctx := context.Background()

			if _, err := backend.Increment(ctx, "", time.Minute); err == nil {
				t.Error("expected error for empty key")
			}
			if _, err := backend.Increment(ctx, "k", 0); err == nil {
				t.Error("expected error for zero window")
			}
			if err := backend.Ping(ctx); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestBackend_ConcurrentIncrements(t *testing.T) {
	for _, h := range harnesses() {
		t.Run(h.name, func(t *testing.T) {
			backend, _ := h.setup(t)
			ctx := context.Background()

			const workers = 20
			seen := make(chan int64, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					counter, err := backend.Increment(ctx, "middleware:shared", time.Minute)
					if err != nil {
						t.Errorf("Increment failed: %v", err)
						return
					}
					seen <- counter.Count
				}()
			}
			wg.Wait()
			close(seen)

			counts := make(map[int64]bool)
			for c := range seen {
				if counts[c] {
					t.Errorf("count %d observed twice", c)
				}
				counts[c] = true
			}
			for i := int64(1); i <= workers; i++ {
				if !counts[i] {
					t.Errorf("count %d never observed", i)
				}
			}
		})
	}
}

func TestMemoryBackend_Eviction(t *testing.T) {
	b := NewMemoryBackendWithConfig(MemoryBackendConfig{MaxEntries: 3})
	defer b.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := b.Increment(ctx, fmt.Sprintf("k%d", i), time.Duration(i+1)*time.Minute); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if b.Size() != 3 {
		t.Errorf("Size() = %d, want 3", b.Size())
	}
}

func TestMemoryBackend_Cleanup(t *testing.T) {
	clock := newFakeClock()
	b := NewMemoryBackend()
	b.now = clock.Now
	defer b.Close()
	ctx := context.Background()

	b.Increment(ctx, "short", time.Second)
	b.Increment(ctx, "long", time.Hour)
	clock.Advance(2 * time.Second)

	if deleted := b.Cleanup(ctx); deleted != 1 {
		t.Errorf("Cleanup() deleted %d, want 1", deleted)
	}
	if b.Size() != 1 {
		t.Errorf("Size() = %d, want 1", b.Size())
	}
}

func TestMemoryBackend_Closed(t *testing.T) {
	b := NewMemoryBackend()
	b.Close()
	b.Close()

	if _, err := b.Increment(context.Background(), "k", time.Minute); err != ErrClosed {
		t.Errorf("Increment after Close error = %v, want ErrClosed", err)
	}
	if err := b.Ping(context.Background()); err != ErrClosed {
		t.Errorf("Ping after Close error = %v, want ErrClosed", err)
	}
}

func TestSQLiteBackend_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimit.db")
	ctx := context.Background()

	b, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := b.Increment(ctx, "persist", time.Hour); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	counter, err := reopened.Increment(ctx, "persist", time.Hour)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if counter.Count != 5 {
		t.Errorf("count after reopen = %d, want 5", counter.Count)
	}
}

func TestSQLiteBackend_Cleanup(t *testing.T) {
	clock := newFakeClock()
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "ratelimit.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	b.now = clock.Now
	defer b.Close()
	ctx := context.Background()

	b.Increment(ctx, "short", time.Second)
	b.Increment(ctx, "long", time.Hour)
	clock.Advance(2 * time.Second)

	deleted, err := b.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Cleanup() deleted %d, want 1", deleted)
	}
}

func TestNewSQLiteBackend_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteBackend(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestRedisBackend_SetsExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBackend(RedisBackendConfig{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisBackend failed: %v", err)
	}
	defer b.Close()

	counter, err := b.Increment(context.Background(), "middleware:e", time.Minute)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	if ttl := mr.TTL("middleware:e"); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}
	if remaining := counter.TTL(time.Now()); remaining <= 0 || remaining > time.Minute {
		t.Errorf("counter TTL = %v, want (0, 1m]", remaining)
	}
}

func TestRedisBackend_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBackend(RedisBackendConfig{Address: mr.Addr(), DialTimeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewRedisBackend failed: %v", err)
	}
	defer b.Close()

	mr.Close()

	if err := b.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail after server shutdown")
	}
	if _, err := b.Increment(context.Background(), "k", time.Minute); err == nil {
		t.Error("expected Increment to fail after server shutdown")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      RedisBackendConfig
		wantAddr string
		wantTLS  bool
		wantPass string
		wantErr  bool
	}{
		{
			name:     "url",
			cfg:      RedisBackendConfig{URL: "rediss://user:pw@cache.example.com:6380/2"},
			wantAddr: "cache.example.com:6380",
			wantTLS:  true,
			wantPass: "pw",
		},
		{
			name:     "upstash rest credentials",
			cfg:      RedisBackendConfig{UpstashURL: "https://eu1-able-fox-123.upstash.io", UpstashToken: "tok"},
			wantAddr: "eu1-able-fox-123.upstash.io:6379",
			wantTLS:  true,
			wantPass: "tok",
		},
		{
			name:     "address",
			cfg:      RedisBackendConfig{Address: "127.0.0.1:6379", Password: "pw"},
			wantAddr: "127.0.0.1:6379",
			wantPass: "pw",
		},
		{
			name:     "address with tls",
			cfg:      RedisBackendConfig{Address: "cache.internal:6379", TLS: true},
			wantAddr: "cache.internal:6379",
			wantTLS:  true,
		},
		{
			name:    "bad url",
			cfg:     RedisBackendConfig{URL: "http://nope"},
			wantErr: true,
		},
		{
			name:    "nothing configured",
			cfg:     RedisBackendConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := RedisOptions(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("RedisOptions failed: %v", err)
			}
			if opts.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", opts.Addr, tt.wantAddr)
			}
			if (opts.TLSConfig != nil) != tt.wantTLS {
				t.Errorf("TLS = %v, want %v", opts.TLSConfig != nil, tt.wantTLS)
			}
			if opts.Password != tt.wantPass {
				t.Errorf("Password = %q, want %q", opts.Password, tt.wantPass)
			}
		})
	}
}

func TestCounter_TTL(t *testing.T) {
	now := time.Now()
	c := &Counter{ResetAt: now.Add(30 * time.Second)}
	if got := c.TTL(now); got != 30*time.Second {
		t.Errorf("TTL() = %v, want 30s", got)
	}
	if got := c.TTL(now.Add(time.Minute)); got != 0 {
		t.Errorf("TTL() after reset = %v, want 0", got)
	}
}
