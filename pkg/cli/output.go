package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"guionesreels/ideagate/pkg/audit"
	"guionesreels/ideagate/pkg/audit/export"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output, supported for audit records only.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unsupported output format %q (text, json, csv)", s))
	}
}

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a formatter for general command output. CSV falls
// back to text.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TextFormatter{}
}

// NewRecordExporter returns the exporter used by "audit list".
func NewRecordExporter(format OutputFormat) (audit.Exporter, error) {
	switch format {
	case FormatText, "":
		return &TableExporter{}, nil
	case FormatJSON, FormatCSV:
		return export.New(string(format))
	default:
		return nil, NewConfigError("format", fmt.Sprintf("unsupported output format %q", format))
	}
}

// TableExporter renders audit records as an aligned text table.
type TableExporter struct{}

// Export writes one row per record.
func (e *TableExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tSTATUS\tOUTCOME\tCLIENT\tPROMPT\tREPLY\tUPSTREAM\tREQUEST ID")

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		upstream := "-"
		if r.UpstreamLatency > 0 {
			upstream = r.UpstreamLatency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ReceivedAt.UTC().Format(time.RFC3339),
			r.StatusCode,
			r.Outcome,
			orDash(r.ClientHash),
			r.PromptChars,
			r.ReplyChars,
			upstream,
			orDash(r.RequestID),
		)
	}

	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
