package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/telemetry/logging"
)

func TestServeHTTP(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.Reply = "ideas"

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"agenda en 5 minutos"}`))
	req.Header.Set("Origin", prodOrigin)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(logging.WithRequestID(req.Context(), "req-http"))
	w := httptest.NewRecorder()

	f.gw.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["reply"] != "ideas" {
		t.Errorf("reply = %q, want ideas", body["reply"])
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != prodOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, prodOrigin)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q, want Content-Type", got)
	}
}

func TestServeHTTP_Forbidden(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"hola"}`))
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()

	f.gw.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if w.Body.String() != MessageForbiddenOrigin {
		t.Errorf("body = %q, want %q", w.Body.String(), MessageForbiddenOrigin)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestServeHTTP_OversizedBody(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MaxBodyBytes = 32 })

	body := `{"promesa":"` + strings.Repeat("a", 1000) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Origin", prodOrigin)
	w := httptest.NewRecorder()

	f.gw.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServeHTTP_RateLimitPerClientHeader(t *testing.T) {
	f := newFixture(t, nil)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"hola"}`))
		req.Header.Set("Origin", prodOrigin)
		req.Header.Set(DefaultClientIPHeader, ip)
		w := httptest.NewRecorder()
		f.gw.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 10; i++ {
		if code := send("192.0.2.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := send("192.0.2.1"); code != http.StatusTooManyRequests {
		t.Errorf("11th request: status = %d, want 429", code)
	}
	if code := send("192.0.2.2"); code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", code)
	}
}

func TestServeHTTP_IgnoreClientIPHeader(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IgnoreClientIPHeader = true })

	// Every request claims a fresh address; all share one peer.
	send := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"promesa":"hola"}`))
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("Origin", prodOrigin)
		req.Header.Set(DefaultClientIPHeader, fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		f.gw.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 10; i++ {
		if code := send(i); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := send(10); code != http.StatusTooManyRequests {
		t.Errorf("11th request with a new header value: status = %d, want 429", code)
	}
}

func TestOptionsFromConfig_ClientIPHeaderTrust(t *testing.T) {
	off := false
	tests := []struct {
		name  string
		trust *bool
		want  bool
	}{
		{"default", nil, false},
		{"untrusted", &off, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Gateway.TrustClientIPHeader = tt.trust
			if got := OptionsFromConfig(cfg).IgnoreClientIPHeader; got != tt.want {
				t.Errorf("IgnoreClientIPHeader = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		remoteAddr string
		want       string
	}{
		{"header", DefaultClientIPHeader, "198.51.100.7", "10.0.0.1:4000", "198.51.100.7"},
		{"header list", DefaultClientIPHeader, "198.51.100.7, 10.0.0.2", "10.0.0.1:4000", "198.51.100.7"},
		{"missing header", DefaultClientIPHeader, "", "10.0.0.1:4000", "10.0.0.1"},
		{"ipv6 peer", DefaultClientIPHeader, "", "[2001:db8::1]:4000", "2001:db8::1"},
		{"no header configured", "", "198.51.100.7", "10.0.0.1:4000", "10.0.0.1"},
		{"peer without port", DefaultClientIPHeader, "", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/generate", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.value != "" {
				req.Header.Set(DefaultClientIPHeader, tt.value)
			}

			if got := ClientIdentifier(req, tt.header); got != tt.want {
				t.Errorf("ClientIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}
