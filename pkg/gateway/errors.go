package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"guionesreels/ideagate/pkg/limits/ratelimit"
	"guionesreels/ideagate/pkg/providers"
)

// User-facing messages.
const (
	MessageForbiddenOrigin     = "Acceso no autorizado"
	MessageMethodNotAllowed    = "Method Not Allowed"
	MessageRateLimited         = "Has realizado demasiadas solicitudes. Por favor, espera un momento."
	MessageInvalidInput        = "Input inválido."
	MessageForbiddenCharacters = "El input contiene caracteres no permitidos."
	MessageInternalError       = "Error interno al procesar la solicitud."
)

// AuthorizationError is returned when the request's origin is not allowed.
type AuthorizationError struct {
	// Origin is the rejected Origin header, empty when absent.
	Origin string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e.Origin == "" {
		return "origin not allowed: missing Origin header"
	}
	return fmt.Sprintf("origin not allowed: %q", e.Origin)
}

// MethodNotAllowedError is returned for any method other than POST.
type MethodNotAllowedError struct {
	Method string
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed", e.Method)
}

// ValidationReason classifies a rejected input.
type ValidationReason string

const (
	// ReasonInvalidInput covers a missing, non-string, or oversized promesa,
	// and bodies that are not a JSON object.
	ReasonInvalidInput ValidationReason = "invalid_input"

	// ReasonForbiddenCharacters is an input containing a forbidden character.
	ReasonForbiddenCharacters ValidationReason = "forbidden_characters"
)

// ValidationError is returned when the request body is rejected.
type ValidationError struct {
	Reason ValidationReason

	// Detail is logged, never returned to the client.
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Detail)
}

// UpstreamError wraps a failure of a dependency: the rate-limit backend or
// the completion service.
type UpstreamError struct {
	// Stage is "ratelimit" or "completion".
	Stage string

	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusFor maps a pipeline error to its HTTP status code.
func StatusFor(err error) int {
	var (
		authErr       *AuthorizationError
		methodErr     *MethodNotAllowedError
		exceededErr   *ratelimit.ExceededError
		validationErr *ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &authErr):
		return http.StatusForbidden
	case errors.As(err, &methodErr):
		return http.StatusMethodNotAllowed
	case errors.As(err, &exceededErr):
		return http.StatusTooManyRequests
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// outcomeFor returns the outcome label for a pipeline error.
func outcomeFor(err error) string {
	var (
		authErr       *AuthorizationError
		methodErr     *MethodNotAllowedError
		exceededErr   *ratelimit.ExceededError
		validationErr *ValidationError
		upstreamErr   *UpstreamError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &authErr):
		return OutcomeForbiddenOrigin
	case errors.As(err, &methodErr):
		return OutcomeMethodNotAllowed
	case errors.As(err, &exceededErr):
		return OutcomeRateLimited
	case errors.As(err, &validationErr):
		if validationErr.Reason == ReasonForbiddenCharacters {
			return OutcomeForbiddenCharacters
		}
		return OutcomeInvalidInput
	case errors.As(err, &upstreamErr):
		return OutcomeUpstreamError
	default:
		return OutcomeInternalError
	}
}

// errorType returns a short classification of err for audit records.
func errorType(err error) string {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Stage + "." + providers.ErrorKind(upstreamErr.Err)
	}
	if err == nil {
		return ""
	}
	return outcomeFor(err)
}

// responseFor builds the client-facing response for a pipeline error. CORS
// headers are added by the caller.
func responseFor(err error) *Response {
	status := StatusFor(err)
	resp := &Response{StatusCode: status, Header: make(http.Header)}

	switch status {
	case http.StatusForbidden:
		setText(resp, MessageForbiddenOrigin)
	case http.StatusMethodNotAllowed:
		resp.Header.Set("Allow", http.MethodPost)
		setText(resp, MessageMethodNotAllowed)
	case http.StatusTooManyRequests:
		var exceededErr *ratelimit.ExceededError
		if errors.As(err, &exceededErr) {
			setRateLimitHeaders(resp.Header, exceededErr.Result)
			resp.Header.Set("Retry-After", strconv.Itoa(retryAfterSeconds(exceededErr.RetryAfter().Seconds())))
		}
		setText(resp, MessageRateLimited)
	case http.StatusBadRequest:
		msg := MessageInvalidInput
		var validationErr *ValidationError
		if errors.As(err, &validationErr) && validationErr.Reason == ReasonForbiddenCharacters {
			msg = MessageForbiddenCharacters
		}
		setJSON(resp, errorPayload{Error: msg})
	default:
		setText(resp, MessageInternalError)
	}

	return resp
}

// setRateLimitHeaders adds the X-RateLimit-* headers for result.
func setRateLimitHeaders(h http.Header, result *ratelimit.CheckResult) {
	if result == nil {
		return
	}
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
}

// retryAfterSeconds rounds up and never returns less than one second.
func retryAfterSeconds(seconds float64) int {
	s := int(math.Ceil(seconds))
	if s < 1 {
		return 1
	}
	return s
}

func setText(resp *Response, msg string) {
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(msg)
}

func setJSON(resp *Response, v interface{}) {
	resp.Header.Set("Content-Type", "application/json")
	body, err := marshalJSON(v)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		setText(resp, MessageInternalError)
		return
	}
	resp.Body = body
}

// marshalJSON encodes v without HTML escaping so replies are returned verbatim.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
