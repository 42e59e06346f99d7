package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"guionesreels/ideagate/pkg/audit"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}
	data := "test message"

	output, err := formatter.Format(data)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "test message\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

func TestTextFormatterWriter(t *testing.T) {
	formatter := &TextFormatter{}
	data := "test message"
	buf := &bytes.Buffer{}

	err := formatter.FormatTo(buf, data)
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	expected := "test message\n"
	if buf.String() != expected {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), expected)
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		indent bool
	}{
		{
			name:   "simple string",
			data:   "test",
			indent: false,
		},
		{
			name: "map with indent",
			data: map[string]string{
				"key": "value",
			},
			indent: true,
		},
		{
			name: "struct",
			data: struct {
				Name  string `json:"name"`
				Value int    `json:"value"`
			}{
				Name:  "test",
				Value: 42,
			},
			indent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			// Verify it's valid JSON by unmarshaling
			var result interface{}
			if err := json.Unmarshal(output, &result); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	data := map[string]string{"test": "value"}
	buf := &bytes.Buffer{}

	err := formatter.FormatTo(buf, data)
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	// Verify valid JSON
	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Errorf("FormatTo() produced invalid JSON: %v", err)
	}

	if result["test"] != "value" {
		t.Errorf("FormatTo() = %v, want %v", result, data)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{"text formatter", FormatText, "*cli.TextFormatter"},
		{"json formatter", FormatJSON, "*cli.JSONFormatter"},
		{"csv falls back to text", FormatCSV, "*cli.TextFormatter"},
		{"default to text", "unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewFormatter(tt.format)
			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func sampleRecords() []*audit.Record {
	return []*audit.Record{
		{
			ID:              "11111111-1111-1111-1111-111111111111",
			RequestID:       "req-1",
			ReceivedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ClientHash:      "0123456789abcdef",
			Method:          "POST",
			StatusCode:      200,
			Outcome:         "ok",
			PromptChars:     19,
			ReplyChars:      812,
			Model:           "gemini-1.5-flash",
			UpstreamLatency: 1234 * time.Millisecond,
		},
		{
			ID:         "22222222-2222-2222-2222-222222222222",
			ReceivedAt: time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC),
			Method:     "GET",
			StatusCode: 405,
			Outcome:    "method_not_allowed",
		},
	}
}

func TestTableExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TableExporter{}).Export(context.Background(), sampleRecords(), buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "RECEIVED") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"2026-03-01T12:00:00Z", "200", "ok", "0123456789abcdef", "1.234s", "req-1"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	if !strings.Contains(lines[2], "method_not_allowed") || strings.Count(lines[2], "-") < 2 {
		t.Errorf("row %q should show the outcome and dashes for missing values", lines[2])
	}
}

func TestNewRecordExporter(t *testing.T) {
	tests := []struct {
		format  OutputFormat
		check   func(t *testing.T, out string)
		wantErr bool
	}{
		{FormatText, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "RECEIVED") {
				t.Errorf("text output = %q", out)
			}
		}, false},
		{FormatJSON, func(t *testing.T, out string) {
			var records []map[string]interface{}
			if err := json.Unmarshal([]byte(out), &records); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(records) != 2 {
				t.Errorf("records = %d, want 2", len(records))
			}
		}, false},
		{FormatCSV, func(t *testing.T, out string) {
			if n := strings.Count(out, "\n"); n != 3 {
				t.Errorf("csv lines = %d, want 3", n)
			}
		}, false},
		{"xml", nil, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			exporter, err := NewRecordExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRecordExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			buf := &bytes.Buffer{}
			if err := exporter.Export(context.Background(), sampleRecords(), buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}
