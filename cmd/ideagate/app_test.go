package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	testproviders "guionesreels/ideagate/internal/providers"
	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/secrets"
)

func newTestApp(t *testing.T, server *testproviders.MockServer, mutate func(*config.Config)) *app {
	t.Helper()

	cfg := config.Default()
	cfg.Completion.BaseURL = server.URL()
	cfg.Completion.APIKey = "test-key"
	cfg.RateLimit.Backend = "memory"
	cfg.Audit.Enabled = true
	cfg.Audit.Backend = "memory"
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := newApp(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func newMockGemini(t *testing.T, reply string) *testproviders.MockServer {
	t.Helper()
	server := testproviders.NewMockServer()
	t.Cleanup(server.Close)
	server.SetGenerateResponse(config.DefaultCompletionModel, testproviders.MockResponse{
		Body: testproviders.MockGenerateResponse(reply),
	})
	server.SetResponse(testproviders.ModelPath(config.DefaultCompletionModel), testproviders.MockResponse{
		Body: testproviders.MockModelInfo(config.DefaultCompletionModel),
	})
	return server
}

func generate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, config.DefaultRoute, strings.NewReader(body))
	req.Header.Set("Origin", config.DefaultProductionOrigin)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(config.DefaultClientIPHeader, "203.0.113.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewApp_EndToEnd(t *testing.T) {
	server := newMockGemini(t, "**Idea 1**: <rutina>")
	a := newTestApp(t, server, nil)
	h := a.server.Handler()

	rec := generate(t, h, `{"promesa":"Ayudo a emprendedoras a vender sin redes"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload.Reply != "**Idea 1**: <rutina>" {
		t.Errorf("Reply = %q", payload.Reply)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != config.DefaultProductionOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID")
	}

	last, ok := server.LastRequest()
	if !ok || last.APIKey != "test-key" {
		t.Errorf("upstream API key = %q, want the configured key", last.APIKey)
	}

	for i := 0; i < config.DefaultRateLimitPoints-1; i++ {
		generate(t, h, `{"promesa":"otra idea"}`)
	}
	if rec := generate(t, h, `{"promesa":"una más"}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("request %d: status = %d, want 429", config.DefaultRateLimitPoints+1, rec.Code)
	}
}

func TestNewApp_HealthAndMetrics(t *testing.T) {
	server := newMockGemini(t, "ok")
	a := newTestApp(t, server, nil)
	h := a.server.Handler()

	for _, path := range []string{config.DefaultLivenessPath, config.DefaultReadinessPath} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200; body %s", path, rec.Code, rec.Body.String())
		}
	}

	generate(t, h, `{"promesa":"hola<script>"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, config.DefaultMetricsPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET metrics = %d", rec.Code)
	}
	body := rec.Body.String()
	want := `ideagate_gateway_requests_total{outcome="forbidden_characters",status="400"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics missing %q", want)
	}
	if !strings.Contains(body, `ideagate_upstream_provider_health{provider="gemini"} 1`) {
		t.Errorf("readiness should publish provider health:\n%s", body)
	}
}

func TestNewApp_RateLimitDisabled(t *testing.T) {
	server := newMockGemini(t, "ok")
	off := false
	a := newTestApp(t, server, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = &off
		cfg.Audit.Enabled = false
	})

	if a.limiter.Enabled() {
		t.Error("limiter should be disabled")
	}
	if a.pruner != nil {
		t.Error("no pruner without audit")
	}
	h := a.server.Handler()
	for i := 0; i < config.DefaultRateLimitPoints+5; i++ {
		if rec := generate(t, h, `{"promesa":"sin límite"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestNewApp_BadAuditBackend(t *testing.T) {
	server := newMockGemini(t, "ok")
	cfg := config.Default()
	cfg.Completion.BaseURL = server.URL()
	cfg.RateLimit.Backend = "memory"
	cfg.Audit.Enabled = true
	cfg.Audit.Backend = "postgres"

	if _, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for unknown audit backend")
	}
}

func TestAPIKeySource(t *testing.T) {
	t.Setenv("IDEAGATE_TEST_GEMINI_KEY", "from-env")

	cfg := config.Default()
	cfg.Secrets.EnvPrefix = "IDEAGATE_TEST_"
	mgr, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		t.Fatalf("NewManagerFromConfig failed: %v", err)
	}
	defer mgr.Close()

	completion := cfg.Completion
	completion.APIKeySecret = "GEMINI_KEY"

	key, err := apiKeySource(completion, mgr).APIKey(context.Background())
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "from-env" {
		t.Errorf("APIKey = %q, want the env secret", key)
	}

	completion.APIKey = "literal"
	if key, _ := apiKeySource(completion, mgr).APIKey(context.Background()); key != "literal" {
		t.Errorf("APIKey = %q, want the literal key", key)
	}
}
