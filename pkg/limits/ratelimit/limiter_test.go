package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"guionesreels/ideagate/pkg/limits/storage"
)

func newTestLimiter(t *testing.T, points int) *Limiter {
	t.Helper()
	backend := storage.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })

	limiter, err := NewLimiter(backend, Config{Points: points, Duration: time.Minute, KeyPrefix: "middleware"})
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	return limiter
}

func TestLimiter_AllowsUpToPoints(t *testing.T) {
	limiter := newTestLimiter(t, 10)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		result, err := limiter.Consume(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("consumption %d: unexpected error %v", i, err)
		}
		if !result.Allowed {
			t.Errorf("consumption %d: expected allowed", i)
		}
		if result.Remaining != int64(10-i) {
			t.Errorf("consumption %d: remaining = %d, want %d", i, result.Remaining, 10-i)
		}
	}

	result, err := limiter.Consume(ctx, "203.0.113.7")
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("11th consumption: expected ExceededError, got %v", err)
	}
	if result.Allowed {
		t.Error("11th consumption: expected rejection")
	}
	if result.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", result.Remaining)
	}
	if exceeded.RetryAfter() <= 0 || exceeded.RetryAfter() > time.Minute {
		t.Errorf("RetryAfter() = %v, want (0, 1m]", exceeded.RetryAfter())
	}
	if exceeded.Identifier != "203.0.113.7" {
		t.Errorf("Identifier = %q, want %q", exceeded.Identifier, "203.0.113.7")
	}
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1)
	ctx := context.Background()

	if _, err := limiter.Consume(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := limiter.Consume(ctx, "b"); err != nil {
		t.Errorf("second identifier should have its own budget: %v", err)
	}
	if _, err := limiter.Consume(ctx, "a"); err == nil {
		t.Error("expected first identifier to be exhausted")
	}
}

func TestLimiter_Reset(t *testing.T) {
	limiter := newTestLimiter(t, 1)
	ctx := context.Background()

	limiter.Consume(ctx, "a")
	if _, err := limiter.Consume(ctx, "a"); err == nil {
		t.Fatal("expected exhaustion")
	}
	if err := limiter.Reset(ctx, "a"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := limiter.Consume(ctx, "a"); err != nil {
		t.Errorf("expected budget after reset, got %v", err)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := newTestLimiter(t, 10)
	ctx := context.Background()

	var allowed, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limiter.Consume(ctx, "burst")
			if err == nil {
				allowed.Add(1)
			} else {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != 10 {
		t.Errorf("allowed = %d, want 10", allowed.Load())
	}
	if rejected.Load() != 40 {
		t.Errorf("rejected = %d, want 40", rejected.Load())
	}
}

type failingBackend struct{ storage.Backend }

func (failingBackend) Increment(context.Context, string, time.Duration) (*storage.Counter, error) {
	return nil, errors.New("connection refused")
}

func TestLimiter_BackendFailure(t *testing.T) {
	limiter, err := NewLimiter(failingBackend{}, Config{Points: 10, Duration: time.Minute})
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	result, err := limiter.Consume(context.Background(), "a")
	if err == nil {
		t.Fatal("expected backend error")
	}
	if result != nil {
		t.Errorf("expected no decision, got %+v", result)
	}
	var exceeded *ExceededError
	if errors.As(err, &exceeded) {
		t.Error("backend failure must not be reported as exceeded")
	}
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	backend := storage.NewMemoryBackend()
	defer backend.Close()

	tests := []struct {
		name    string
		backend storage.Backend
		config  Config
	}{
		{"nil backend", nil, Config{Points: 1, Duration: time.Second}},
		{"zero points", backend, Config{Points: 0, Duration: time.Second}},
		{"zero duration", backend, Config{Points: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLimiter(tt.backend, tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLimiter_EmptyIdentifier(t *testing.T) {
	limiter := newTestLimiter(t, 1)
	if _, err := limiter.Consume(context.Background(), ""); err == nil {
		t.Error("expected error for empty identifier")
	}
}
