package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// Counters are local to the process, so limits are not shared between
// instances. All data is lost when the process exits.
//
// MemoryBackend is thread-safe.
type MemoryBackend struct {
	// windows maps storage key to its current window.
	windows map[string]*memoryWindow

	// mu protects access to windows.
	mu sync.Mutex

	// maxEntries is the maximum number of keys before eviction.
	maxEntries int

	// cleanupInterval is how often expired windows are removed.
	cleanupInterval time.Duration

	// now returns the current time. Replaced in tests.
	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// MaxEntries is the maximum number of keys to track.
	// The window closest to expiry is evicted when this limit is reached,
	// which resets that key's budget.
	// Default: 100,000
	MaxEntries int

	// CleanupInterval is how often to remove expired windows.
	// Default: 1 minute
	CleanupInterval time.Duration
}

// NewMemoryBackend creates a new in-memory storage backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates a new in-memory backend with custom configuration.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	backend := &MemoryBackend{
		windows:         make(map[string]*memoryWindow),
		maxEntries:      cfg.MaxEntries,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}

	go backend.cleanupLoop()

	return backend
}

// Increment adds one to the counter for key, opening a new window if needed.
func (m *MemoryBackend) Increment(ctx context.Context, key string, window time.Duration) (*Counter, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(m.windows) >= m.maxEntries {
			m.evictLocked(now)
		}
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++

	return &Counter{Key: key, Count: w.count, ResetAt: w.resetAt}, nil
}

// Reset removes the counter for key.
func (m *MemoryBackend) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)
	return nil
}

// Ping always succeeds for an open backend.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
		return nil
	}
}

// Cleanup removes expired windows and returns how many were deleted.
func (m *MemoryBackend) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	deleted := 0
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			deleted++
		}
	}
	return deleted
}

// Close stops the cleanup goroutine. Close is idempotent.
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

// Size returns the current number of tracked keys.
func (m *MemoryBackend) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// evictLocked drops expired windows, or the one closest to expiry when none
// have expired. Caller must hold the lock.
func (m *MemoryBackend) evictLocked(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
	if len(m.windows) < m.maxEntries {
		return
	}

	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for key, w := range m.windows {
		if !found || w.resetAt.Before(soonest) {
			victim = key
			soonest = w.resetAt
			found = true
		}
	}
	if found {
		delete(m.windows, victim)
	}
}

// cleanupLoop runs periodic cleanup of expired windows.
func (m *MemoryBackend) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup(context.Background())
		case <-m.done:
			return
		}
	}
}
