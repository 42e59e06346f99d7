package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// Counters survive restarts, which suits single-instance deployments that
// cannot reach a shared store.
//
// Every increment is a single upsert statement, so it is atomic without an
// explicit transaction.
type SQLiteBackend struct {
	db              *sql.DB
	dbPath          string
	cleanupInterval time.Duration
	now             func() time.Time
	done            chan struct{}
	closeOnce       sync.Once

	incrementStmt *sql.Stmt
	resetStmt     *sql.Stmt
	cleanupStmt   *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CleanupInterval is how often expired windows are deleted and the WAL
	// is checkpointed.
	// Default: 5 minutes
	CleanupInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:              db,
		dbPath:          cfg.DBPath,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go backend.cleanupLoop()

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_counters (
		key TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		reset_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_counters_reset_at ON rate_counters(reset_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	// Parameters: key, new reset_at, now.
	s.incrementStmt, err = s.db.Prepare(`
		INSERT INTO rate_counters (key, count, reset_at)
		VALUES (?1, 1, ?2)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE WHEN rate_counters.reset_at <= ?3 THEN 1 ELSE rate_counters.count + 1 END,
			reset_at = CASE WHEN rate_counters.reset_at <= ?3 THEN excluded.reset_at ELSE rate_counters.reset_at END
		RETURNING count, reset_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare increment statement: %w", err)
	}

	s.resetStmt, err = s.db.Prepare(`DELETE FROM rate_counters WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare reset statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`DELETE FROM rate_counters WHERE reset_at <= ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Increment adds one to the counter for key, opening a new window if needed.
func (s *SQLiteBackend) Increment(ctx context.Context, key string, window time.Duration) (*Counter, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}

	now := s.now()
	var (
		count   int64
		resetAt int64
	)
	err := s.incrementStmt.QueryRowContext(ctx, key, now.Add(window).UnixMilli(), now.UnixMilli()).Scan(&count, &resetAt)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter %q: %w", key, err)
	}

	return &Counter{Key: key, Count: count, ResetAt: time.UnixMilli(resetAt)}, nil
}

// Reset removes the counter for key.
func (s *SQLiteBackend) Reset(ctx context.Context, key string) error {
	if _, err := s.resetStmt.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("failed to reset counter %q: %w", key, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Cleanup removes expired windows and returns how many were deleted.
func (s *SQLiteBackend) Cleanup(ctx context.Context) (int, error) {
	result, err := s.cleanupStmt.ExecContext(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup counters: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

// Close releases any resources held by the backend.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{s.incrementStmt, s.resetStmt, s.cleanupStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// cleanupLoop periodically deletes expired windows and checkpoints the WAL.
func (s *SQLiteBackend) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.Cleanup(context.Background())
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
