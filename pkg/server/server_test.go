package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	testproviders "guionesreels/ideagate/internal/providers"
	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/gateway"
	"guionesreels/ideagate/pkg/gateway/middleware"
	"guionesreels/ideagate/pkg/limits/ratelimit"
	limitstorage "guionesreels/ideagate/pkg/limits/storage"
	"guionesreels/ideagate/pkg/telemetry/health"
	"guionesreels/ideagate/pkg/telemetry/metrics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(gateway http.Handler) Options {
	cfg := config.Default()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = time.Second

	return Options{
		Config:       cfg.Server,
		Gateway:      gateway,
		Health:       health.New(time.Second, "test"),
		HealthConfig: cfg.Telemetry.Health,
		Metrics:      metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		MetricsPath:  cfg.Telemetry.Metrics.Path,
		Logger:       quietLogger(),
	}
}

func TestHandler_Routes(t *testing.T) {
	gateway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	})
	handler := New(testOptions(gateway)).Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"gateway", http.MethodPost, "/generate", http.StatusOK, `{"reply":"ok"}`},
		{"liveness", http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{"readiness", http.MethodGet, "/ready", http.StatusOK, `"status":"ready"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "ideagate_"},
		{"unknown", http.MethodGet, "/v1/chat/completions", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want to contain %q", w.Body.String(), tt.wantBody)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestHandler_MetricsDisabled(t *testing.T) {
	off := false
	opts := testOptions(http.NotFoundHandler())
	opts.Metrics = metrics.NewCollector(config.MetricsConfig{Enabled: &off}, prometheus.NewRegistry())

	w := httptest.NewRecorder()
	New(opts).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandler_PanicRecovered(t *testing.T) {
	handler := New(testOptions(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHandler_RequestTimeout(t *testing.T) {
	opts := testOptions(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	opts.Config.RequestTimeout = 20 * time.Millisecond

	w := httptest.NewRecorder()
	New(opts).Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate", nil))

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}

const siteOrigin = "https://guionesparareels.netlify.app"

// slowGateway returns a real gateway whose upstream takes delay to answer.
func slowGateway(t *testing.T, delay time.Duration) *gateway.Gateway {
	t.Helper()
	backend := limitstorage.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })

	limiter, err := ratelimit.NewLimiter(backend, ratelimit.Config{Points: 10, Duration: time.Minute, KeyPrefix: "middleware"})
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	gw, err := gateway.New(gateway.Options{
		AllowedOrigins: []string{siteOrigin},
		Limiter:        limiter,
		Provider:       &testproviders.FakeProvider{Reply: "1. **Concepto**: ...", Delay: delay},
		Logger:         quietLogger(),
	})
	if err != nil {
		t.Fatalf("gateway.New failed: %v", err)
	}
	return gw
}

func TestHandler_CORSOnServerErrors(t *testing.T) {
	tests := []struct {
		name       string
		gateway    http.Handler
		timeout    time.Duration
		wantStatus int
	}{
		{
			name:       "request timeout",
			gateway:    slowGateway(t, time.Second),
			timeout:    30 * time.Millisecond,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name: "recovered panic",
			gateway: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}),
			timeout:    time.Second,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(tt.gateway)
			opts.Config.RequestTimeout = tt.timeout

			req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"Aprende inglés"}`))
			req.Header.Set("Origin", siteOrigin)
			w := httptest.NewRecorder()
			New(opts).Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != siteOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, siteOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
				t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, http.MethodPost)
			}
			if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
				t.Errorf("Access-Control-Allow-Headers = %q, want Content-Type", got)
			}
		})
	}
}

func TestHandler_CORSHeadersNotDuplicated(t *testing.T) {
	handler := New(testOptions(slowGateway(t, 0))).Handler()

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"Aprende inglés"}`))
	req.Header.Set("Origin", siteOrigin)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	for _, name := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Vary"} {
		if got := w.Header().Values(name); len(got) != 1 {
			t.Errorf("%s = %v, want exactly one value", name, got)
		}
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := New(testOptions(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post("http://"+srv.Addr()+"/generate", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("expected error starting a running server")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("server still reports running")
	}
}

func TestServer_ListenError(t *testing.T) {
	opts := testOptions(http.NotFoundHandler())
	opts.Config.ListenAddress = "256.0.0.1:99999"

	if err := New(opts).Start(context.Background()); err == nil {
		t.Error("expected listen error")
	}
}
