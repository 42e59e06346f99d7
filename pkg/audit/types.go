package audit

import (
	"context"
	"io"
	"time"
)

// Record is the audit trail entry for one gateway request. It holds lengths
// and a client hash only; prompts, replies and raw IP addresses are never
// stored.
type Record struct {
	ID         string    `json:"id"`          // UUID v4
	RequestID  string    `json:"request_id"`  // X-Request-ID of the request
	ReceivedAt time.Time `json:"received_at"` // When the request arrived
	RecordedAt time.Time `json:"recorded_at"` // When the record was enqueued

	Origin     string `json:"origin"`      // Origin header, may be empty
	ClientHash string `json:"client_hash"` // HashClient of the client identifier
	Method     string `json:"method"`      // HTTP method

	StatusCode int    `json:"status_code"` // Status returned to the client
	Outcome    string `json:"outcome"`     // Pipeline outcome (ok, rate_limited, ...)
	ErrorType  string `json:"error_type"`  // Failure classification, empty on success

	PromptChars     int           `json:"prompt_chars"`     // Characters in promesa
	ReplyChars      int           `json:"reply_chars"`      // Characters in the reply
	Model           string        `json:"model"`            // Model that served the call
	UpstreamLatency time.Duration `json:"upstream_latency"` // Completion round-trip time
}

// Query defines filter parameters for listing audit records.
type Query struct {
	// Time range, inclusive, on ReceivedAt.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Outcome    string `json:"outcome,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by ReceivedAt: "asc" or "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an audit record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters. It returns an empty
	// slice if none match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filters, ignoring pagination,
	// and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes audit records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
