package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"guionesreels/ideagate/pkg/limits/ratelimit"
	"guionesreels/ideagate/pkg/providers"
)

func TestStatusFor(t *testing.T) {
	exceeded := &ratelimit.ExceededError{
		Identifier: "a",
		Result:     &ratelimit.CheckResult{Limit: 10, RetryAfter: 1500 * time.Millisecond},
	}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantOutcome string
	}{
		{"nil", nil, http.StatusOK, OutcomeOK},
		{"authorization", &AuthorizationError{Origin: "x"}, http.StatusForbidden, OutcomeForbiddenOrigin},
		{"method", &MethodNotAllowedError{Method: "GET"}, http.StatusMethodNotAllowed, OutcomeMethodNotAllowed},
		{"exceeded", exceeded, http.StatusTooManyRequests, OutcomeRateLimited},
		{"wrapped exceeded", fmt.Errorf("consume: %w", exceeded), http.StatusTooManyRequests, OutcomeRateLimited},
		{"invalid input", &ValidationError{Reason: ReasonInvalidInput}, http.StatusBadRequest, OutcomeInvalidInput},
		{"forbidden characters", &ValidationError{Reason: ReasonForbiddenCharacters}, http.StatusBadRequest, OutcomeForbiddenCharacters},
		{"upstream", &UpstreamError{Stage: "completion", Err: errors.New("boom")}, http.StatusInternalServerError, OutcomeUpstreamError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, OutcomeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.wantStatus {
				t.Errorf("StatusFor() = %d, want %d", got, tt.wantStatus)
			}
			if got := outcomeFor(tt.err); got != tt.wantOutcome {
				t.Errorf("outcomeFor() = %q, want %q", got, tt.wantOutcome)
			}
		})
	}
}

func TestResponseFor_RetryAfterRoundsUp(t *testing.T) {
	resp := responseFor(&ratelimit.ExceededError{
		Identifier: "a",
		Result:     &ratelimit.CheckResult{Limit: 10, Remaining: 0, Reset: time.Unix(1700000000, 0), RetryAfter: 1500 * time.Millisecond},
	})

	if got := resp.Header.Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if got := resp.Header.Get("X-RateLimit-Reset"); got != "1700000000" {
		t.Errorf("X-RateLimit-Reset = %q, want 1700000000", got)
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"blocked", &UpstreamError{Stage: "completion", Err: &providers.ContentBlockedError{Reason: "SAFETY"}}, "completion.content_blocked"},
		{"limiter", &UpstreamError{Stage: "ratelimit", Err: errors.New("refused")}, "ratelimit.unknown"},
		{"validation", &ValidationError{Reason: ReasonInvalidInput}, OutcomeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorType(tt.err); got != tt.want {
				t.Errorf("errorType() = %q, want %q", got, tt.want)
			}
		})
	}
}
