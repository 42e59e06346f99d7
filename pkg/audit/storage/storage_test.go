package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"guionesreels/ideagate/pkg/audit"
	"guionesreels/ideagate/pkg/config"
)

func backends(t *testing.T) map[string]audit.Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "nested", "audit.db"),
		WALMode: true,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}

	stores := map[string]audit.Storage{
		"sqlite": sqlite,
		"memory": NewMemoryStorage(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s audit.Storage) {
	t.Helper()
	outcomes := []string{"ok", "ok", "rate_limited", "invalid_input", "ok"}
	statuses := []int{200, 200, 429, 400, 200}
	for i := range outcomes {
		err := s.Store(context.Background(), &audit.Record{
			ID:              fmt.Sprintf("rec-%d", i),
			RequestID:       fmt.Sprintf("req-%d", i),
			ReceivedAt:      base.Add(time.Duration(i) * time.Minute),
			RecordedAt:      base.Add(time.Duration(i) * time.Minute),
			Origin:          "https://guionesparareels.netlify.app",
			ClientHash:      audit.HashClient("203.0.113.7"),
			Method:          "POST",
			StatusCode:      statuses[i],
			Outcome:         outcomes[i],
			PromptChars:     42,
			ReplyChars:      900,
			Model:           "gemini-1.5-flash",
			UpstreamLatency: 1500 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)

			records, err := s.Query(context.Background(), &audit.Query{Limit: 1, SortOrder: "asc"})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("len = %d, want 1", len(records))
			}

			got := records[0]
			if got.ID != "rec-0" {
				t.Errorf("ID = %q, want rec-0", got.ID)
			}
			if !got.ReceivedAt.Equal(base) {
				t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, base)
			}
			if got.UpstreamLatency != 1500*time.Millisecond {
				t.Errorf("UpstreamLatency = %v, want 1.5s", got.UpstreamLatency)
			}
			if got.Model != "gemini-1.5-flash" || got.PromptChars != 42 || got.ErrorType != "" {
				t.Errorf("unexpected record: %+v", got)
			}
		})
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()
			start := base.Add(time.Minute)
			end := base.Add(3 * time.Minute)

			tests := []struct {
				name  string
				query audit.Query
				want  []string
			}{
				{"newest first", audit.Query{}, []string{"rec-4", "rec-3", "rec-2", "rec-1", "rec-0"}},
				{"outcome", audit.Query{Outcome: "ok", SortOrder: "asc"}, []string{"rec-0", "rec-1", "rec-4"}},
				{"status", audit.Query{StatusCode: 429}, []string{"rec-2"}},
				{"inclusive range", audit.Query{StartTime: &start, EndTime: &end, SortOrder: "asc"}, []string{"rec-1", "rec-2", "rec-3"}},
				{"offset", audit.Query{Limit: 2, Offset: 1}, []string{"rec-3", "rec-2"}},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					records, err := s.Query(ctx, &tt.query)
					if err != nil {
						t.Fatalf("Query failed: %v", err)
					}
					if len(records) != len(tt.want) {
						t.Fatalf("len = %d, want %d", len(records), len(tt.want))
					}
					for i, id := range tt.want {
						if records[i].ID != id {
							t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, id)
						}
					}

					count, err := s.Count(ctx, &audit.Query{Outcome: tt.query.Outcome, StatusCode: tt.query.StatusCode, StartTime: tt.query.StartTime, EndTime: tt.query.EndTime})
					if err != nil {
						t.Fatalf("Count failed: %v", err)
					}
					if tt.query.Offset == 0 && count != int64(len(tt.want)) {
						t.Errorf("Count = %d, want %d", count, len(tt.want))
					}
				})
			}
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()
			cutoff := base.Add(time.Minute)

			deleted, err := s.Delete(ctx, &audit.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}

			count, _ := s.Count(ctx, &audit.Query{})
			if count != 3 {
				t.Errorf("remaining = %d, want 3", count)
			}
		})
	}
}

func TestStorage_Ping(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	seed(t, s)
	s.Close()

	s, err = NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	count, err := s.Count(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("count after reopen = %d, want 5", count)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AuditConfig
		wantErr bool
	}{
		{"memory", config.AuditConfig{Backend: "memory"}, false},
		{"sqlite", config.AuditConfig{Backend: "sqlite", SQLite: config.AuditSQLiteConfig{Path: filepath.Join(t.TempDir(), "a.db")}}, false},
		{"unknown", config.AuditConfig{Backend: "postgres"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
