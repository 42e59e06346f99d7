package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"guionesreels/ideagate/pkg/audit"
)

// CSVExporter exports audit records as CSV.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

var header = []string{
	"id", "request_id", "received_at", "recorded_at",
	"origin", "client_hash", "method",
	"status_code", "outcome", "error_type",
	"prompt_chars", "reply_chars", "model", "upstream_latency_ms",
}

// Export writes records to w, one row per record.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(record *audit.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.RequestID,
		formatTime(record.ReceivedAt),
		formatTime(record.RecordedAt),
		record.Origin,
		record.ClientHash,
		record.Method,
		strconv.Itoa(record.StatusCode),
		record.Outcome,
		record.ErrorType,
		strconv.Itoa(record.PromptChars),
		strconv.Itoa(record.ReplyChars),
		record.Model,
		strconv.FormatInt(record.UpstreamLatency.Milliseconds(), 10),
	}
}
