package gateway

import (
	"net/http"
	"time"
)

// Outcome labels recorded in logs, metrics, and audit records.
const (
	OutcomeOK                  = "ok"
	OutcomeForbiddenOrigin     = "forbidden_origin"
	OutcomeMethodNotAllowed    = "method_not_allowed"
	OutcomeRateLimited         = "rate_limited"
	OutcomeInvalidInput        = "invalid_input"
	OutcomeForbiddenCharacters = "forbidden_characters"
	OutcomeUpstreamError       = "upstream_error"
	OutcomeInternalError       = "internal_error"
)

// IncomingRequest is the transport-independent view of a generate request.
type IncomingRequest struct {
	// Method is the HTTP method.
	Method string

	// Origin is the Origin header. Empty means absent.
	Origin string

	// ClientIdentifier keys the rate-limit budget, normally the client IP.
	ClientIdentifier string

	// Body is the raw request body. Bodies longer than the configured cap
	// are rejected as invalid input.
	Body []byte

	// RequestID correlates logs and audit records.
	RequestID string

	// ReceivedAt defaults to the time Handle is called.
	ReceivedAt time.Time
}

// Response is the gateway's answer to one request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Write copies the response to w. Header values replace any already set on
// w, such as the CORS headers added by middleware.
func (r *Response) Write(w http.ResponseWriter) {
	dst := w.Header()
	for k, values := range r.Header {
		dst[k] = values
	}
	w.WriteHeader(r.StatusCode)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}

// replyPayload is the success body.
type replyPayload struct {
	Reply string `json:"reply"`
}

// errorPayload is the 400 body.
type errorPayload struct {
	Error string `json:"error"`
}
