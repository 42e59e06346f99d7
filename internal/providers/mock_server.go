// Package providers contains test doubles for the completion service.
package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a fake Generative Language API. It serves configured
// responses by path and records every request it receives.
type MockServer struct {
	server    *httptest.Server
	responses map[string]MockResponse
	requests  []RecordedRequest
	mu        sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest is a request as seen by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	APIKey string
	Body   []byte
}

// Decode unmarshals the recorded body into v.
func (r RecordedRequest) Decode(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = response
}

// SetGenerateResponse sets the response for model's generateContent call.
func (ms *MockServer) SetGenerateResponse(model string, response MockResponse) {
	ms.SetResponse(GeneratePath(model), response)
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return len(ms.requests)
}

// Requests returns a copy of the recorded requests.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]RecordedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// LastRequest returns the most recent request, and false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		APIKey: r.Header.Get("x-goog-api-key"),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(http.StatusNotFound, "NOT_FOUND", "model not found"))
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	switch v := response.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(v))
	case []byte:
		w.WriteHeader(status)
		_, _ = w.Write(v)
	default:
		writeJSON(w, status, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GeneratePath is the generateContent path for model.
func GeneratePath(model string) string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", model)
}

// ModelPath is the model metadata path used by health checks.
func ModelPath(model string) string {
	return fmt.Sprintf("/v1beta/models/%s", model)
}

// MockGenerateResponse builds a successful generateContent body.
func MockGenerateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": text}},
				},
				"finishReason": "STOP",
				"index":        0,
			},
		},
		"usageMetadata": map[string]interface{}{
			"promptTokenCount":     120,
			"candidatesTokenCount": 80,
			"totalTokenCount":      200,
		},
	}
}

// MockSafetyBlockedResponse builds a body whose only candidate stopped for
// safety reasons.
func MockSafetyBlockedResponse(category string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"finishReason": "SAFETY",
				"index":        0,
				"safetyRatings": []map[string]interface{}{
					{"category": category, "probability": "HIGH", "blocked": true},
				},
			},
		},
	}
}

// MockPromptBlockedResponse builds a body for a prompt rejected outright.
func MockPromptBlockedResponse(reason string) map[string]interface{} {
	return map[string]interface{}{
		"promptFeedback": map[string]interface{}{
			"blockReason": reason,
		},
	}
}

// MockModelInfo builds a model metadata body.
func MockModelInfo(model string) map[string]interface{} {
	return map[string]interface{}{
		"name":        "models/" + model,
		"displayName": model,
	}
}

func errorBody(code int, status, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"status":  status,
		},
	}
}

// MockErrorResponse creates a mock error response.
func MockErrorResponse(statusCode int, status, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body:       errorBody(statusCode, status, message),
	}
}

// MockAuthError creates a 403 response for a rejected API key.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusForbidden, "PERMISSION_DENIED", "API key not valid")
}

// MockRateLimitError creates a 429 quota response.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Quota exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "INTERNAL", "Internal error")
}

// MockSlowResponse creates a successful response delivered after delay.
func MockSlowResponse(delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       MockGenerateResponse("late"),
		Delay:      delay,
	}
}
