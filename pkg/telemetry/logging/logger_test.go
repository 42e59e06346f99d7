package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"guionesreels/ideagate/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"defaults", Config{}, false},
		{"invalid level", Config{Level: "verbose"}, true},
		{"invalid format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_RedactsPII(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("upstream call failed",
		"api_key", "AIzaSyA1b2C3d4E5f6G7h8I9j0KlMnOpQrStUv",
		"client", "198.51.100.20",
	)

	entry := decodeLine(t, buf)
	if entry["api_key"] != "***" {
		t.Errorf("api_key = %v, want ***", entry["api_key"])
	}
	if entry["client"] != "*.*.*.*" {
		t.Errorf("client = %v, want *.*.*.*", entry["client"])
	}
}

func TestNew_WithoutRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", RedactPII: false, Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("msg", "client", "198.51.100.20")
	if entry := decodeLine(t, buf); entry["client"] != "198.51.100.20" {
		t.Errorf("client = %v, want raw address", entry["client"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing")
	}
}

func TestNew_RequestIDFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-42")
	logger.With("component", "gateway").InfoContext(ctx, "handled")

	entry := decodeLine(t, buf)
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", entry["request_id"])
	}
	if entry["component"] != "gateway" {
		t.Errorf("component = %v, want gateway", entry["component"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if err != nil {
				t.Fatalf("ParseLevel(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	off := false
	cfg := FromConfig(config.LoggingConfig{Level: "debug", Format: "text", RedactPII: &off})
	if cfg.Level != "debug" || cfg.Format != "text" {
		t.Errorf("FromConfig() = %+v", cfg)
	}
	if cfg.RedactPII {
		t.Error("RedactPII = true, want false")
	}

	if !FromConfig(config.LoggingConfig{}).RedactPII {
		t.Error("RedactPII should default to true")
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
