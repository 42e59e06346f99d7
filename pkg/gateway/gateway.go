package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"guionesreels/ideagate/pkg/audit"
	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/gateway/middleware"
	"guionesreels/ideagate/pkg/limits/ratelimit"
	"guionesreels/ideagate/pkg/prompt"
	"guionesreels/ideagate/pkg/providers"
	"guionesreels/ideagate/pkg/telemetry/metrics"
)

// Defaults applied by New to zero-valued options.
const (
	DefaultMaxPromiseLength    = 500
	DefaultMaxBodyBytes        = 16 << 10
	DefaultForbiddenCharacters = "<>;{}"
	DefaultClientIPHeader      = "X-Nf-Client-Connection-Ip"
)

// Limiter consumes rate-limit points. *limits.Manager implements it.
//
// An exhausted budget is reported as *ratelimit.ExceededError; any other
// error is a backend failure. A nil result with a nil error admits the
// request without rate-limit headers.
type Limiter interface {
	Consume(ctx context.Context, identifier string) (*ratelimit.CheckResult, error)
}

// Options configures a Gateway.
type Options struct {
	// AllowedOrigins is the exact set of accepted Origin values.
	AllowedOrigins []string

	// Limiter enforces the per-client budget. Required.
	Limiter Limiter

	// Provider serves completions. Required.
	Provider providers.Provider

	// Recorder receives one audit record per request. Optional.
	Recorder *audit.Recorder

	// Metrics records request, rate-limit, and upstream metrics. Optional.
	Metrics *metrics.Collector

	// Model is sent with every completion request.
	Model string

	// SafetyThreshold applies to every harm category. Empty uses the default.
	SafetyThreshold string

	// Temperature and MaxOutputTokens are passed through when set.
	Temperature     *float64
	MaxOutputTokens int

	// MaxPromiseLength is the maximum promesa length in characters.
	MaxPromiseLength int

	// MaxBodyBytes caps the request body.
	MaxBodyBytes int64

	// ForbiddenCharacters rejects any promesa containing one of them.
	ForbiddenCharacters string

	// ClientIPHeader carries the client IP, set by the edge.
	ClientIPHeader string

	// IgnoreClientIPHeader keys clients on the peer address only. Set it
	// when no proxy in front of the gateway overwrites ClientIPHeader.
	IgnoreClientIPHeader bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// OptionsFromConfig fills the configuration-derived options. Dependencies
// (Limiter, Provider, Recorder, Metrics, Logger) are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AllowedOrigins:      cfg.Gateway.AllowedOriginSet(),
		Model:               cfg.Completion.Model,
		SafetyThreshold:     cfg.Completion.SafetyThreshold,
		Temperature:         cfg.Completion.Temperature,
		MaxOutputTokens:     cfg.Completion.MaxOutputTokens,
		MaxPromiseLength:    cfg.Gateway.MaxPromiseLength,
		MaxBodyBytes:        cfg.Gateway.MaxBodyBytes,
		ForbiddenCharacters: cfg.Gateway.ForbiddenCharacters,
		ClientIPHeader:      cfg.Gateway.ClientIPHeader,

		IgnoreClientIPHeader: !cfg.Gateway.ClientIPHeaderTrusted(),
	}
}

// Gateway is the admission pipeline. It is safe for concurrent use; all
// per-request state lives on the stack of Handle.
type Gateway struct {
	origins        map[string]struct{}
	limiter        Limiter
	provider       providers.Provider
	recorder       *audit.Recorder
	metrics        *metrics.Collector
	model          string
	safety         []prompt.SafetySetting
	temperature    *float64
	maxOutput      int
	maxPromise     int
	maxBody        int64
	forbidden      string
	clientIPHeader string
	logger         *slog.Logger
}

// New creates a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.Limiter == nil {
		return nil, errors.New("gateway: limiter is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("gateway: provider is required")
	}
	if opts.SafetyThreshold == "" {
		opts.SafetyThreshold = prompt.DefaultSafetyThreshold
	}
	if err := prompt.ValidateThreshold(opts.SafetyThreshold); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	if opts.MaxPromiseLength <= 0 {
		opts.MaxPromiseLength = DefaultMaxPromiseLength
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ForbiddenCharacters == "" {
		opts.ForbiddenCharacters = DefaultForbiddenCharacters
	}
	if opts.ClientIPHeader == "" {
		opts.ClientIPHeader = DefaultClientIPHeader
	}
	if opts.IgnoreClientIPHeader {
		opts.ClientIPHeader = ""
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = struct{}{}
	}

	return &Gateway{
		origins:        origins,
		limiter:        opts.Limiter,
		provider:       opts.Provider,
		recorder:       opts.Recorder,
		metrics:        opts.Metrics,
		model:          opts.Model,
		safety:         prompt.SafetySettings(opts.SafetyThreshold),
		temperature:    opts.Temperature,
		maxOutput:      opts.MaxOutputTokens,
		maxPromise:     opts.MaxPromiseLength,
		maxBody:        opts.MaxBodyBytes,
		forbidden:      opts.ForbiddenCharacters,
		clientIPHeader: opts.ClientIPHeader,
		logger:         opts.Logger.With("component", "gateway"),
	}, nil
}

// exchange collects what happened to one request for logs, metrics, and
// the audit record.
type exchange struct {
	err error

	rateLimitResult string

	promptChars int
	replyChars  int

	upstreamCalled  bool
	model           string
	upstreamLatency time.Duration
	usage           providers.TokenUsage
}

// Handle runs req through the pipeline. It never panics on bad input and
// always returns a response with CORS headers.
func (g *Gateway) Handle(ctx context.Context, req *IncomingRequest) *Response {
	start := time.Now()
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = start
	}

	ex := &exchange{model: g.model}
	resp := g.process(ctx, req, ex)
	middleware.SetCORSHeaders(resp.Header, req.Origin)

	g.observe(ctx, req, ex, resp, time.Since(start))
	return resp
}

func (g *Gateway) process(ctx context.Context, req *IncomingRequest, ex *exchange) *Response {
	if _, ok := g.origins[req.Origin]; !ok {
		return g.fail(ex, &AuthorizationError{Origin: req.Origin})
	}

	if req.Method != http.MethodPost {
		return g.fail(ex, &MethodNotAllowedError{Method: req.Method})
	}

	limit, err := g.consume(ctx, req.ClientIdentifier, ex)
	if err != nil {
		return g.fail(ex, err)
	}

	promesa, err := g.parse(req.Body)
	if err != nil {
		return g.withLimit(g.fail(ex, err), limit)
	}
	ex.promptChars = utf8.RuneCountInString(promesa)

	if err := CheckPromesa(promesa, g.maxPromise, g.forbidden); err != nil {
		return g.withLimit(g.fail(ex, err), limit)
	}

	reply, err := g.complete(ctx, promesa, ex)
	if err != nil {
		return g.withLimit(g.fail(ex, err), limit)
	}
	ex.replyChars = utf8.RuneCountInString(reply)

	resp := &Response{StatusCode: http.StatusOK, Header: make(http.Header)}
	setJSON(resp, replyPayload{Reply: reply})
	return g.withLimit(resp, limit)
}

func (g *Gateway) fail(ex *exchange, err error) *Response {
	ex.err = err
	return responseFor(err)
}

func (g *Gateway) withLimit(resp *Response, limit *ratelimit.CheckResult) *Response {
	setRateLimitHeaders(resp.Header, limit)
	return resp
}

// consume spends one point of the client's budget.
func (g *Gateway) consume(ctx context.Context, identifier string, ex *exchange) (*ratelimit.CheckResult, error) {
	result, err := g.limiter.Consume(ctx, identifier)
	if err == nil {
		ex.rateLimitResult = "allowed"
		if result == nil {
			ex.rateLimitResult = "skipped"
		}
		return result, nil
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		ex.rateLimitResult = "exceeded"
		return nil, err
	}

	ex.rateLimitResult = "error"
	return nil, &UpstreamError{Stage: "ratelimit", Err: err}
}

// parse extracts promesa from body and checks that it is a JSON string.
func (g *Gateway) parse(body []byte) (string, error) {
	if int64(len(body)) > g.maxBody {
		return "", &ValidationError{
			Reason: ReasonInvalidInput,
			Detail: fmt.Sprintf("body exceeds %d bytes", g.maxBody),
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return "", &ValidationError{Reason: ReasonInvalidInput, Detail: "body is not a JSON object"}
	}

	raw, ok := fields["promesa"]
	if !ok {
		return "", &ValidationError{Reason: ReasonInvalidInput, Detail: "promesa is missing"}
	}

	var promesa string
	if err := json.Unmarshal(raw, &promesa); err != nil || string(raw) == "null" {
		return "", &ValidationError{Reason: ReasonInvalidInput, Detail: "promesa is not a string"}
	}

	return promesa, nil
}

// CheckPromesa applies the text rules to a decoded promesa. It must be at
// most maxLen characters long and must not contain any rune of forbidden.
// An empty string passes. Violations are reported as *ValidationError.
func CheckPromesa(promesa string, maxLen int, forbidden string) error {
	if n := utf8.RuneCountInString(promesa); n > maxLen {
		return &ValidationError{
			Reason: ReasonInvalidInput,
			Detail: fmt.Sprintf("promesa has %d characters, limit is %d", n, maxLen),
		}
	}

	if i := strings.IndexAny(promesa, forbidden); i >= 0 {
		r, _ := utf8.DecodeRuneInString(promesa[i:])
		return &ValidationError{
			Reason: ReasonForbiddenCharacters,
			Detail: fmt.Sprintf("forbidden character %q", r),
		}
	}

	return nil
}

// complete renders the prompt and makes the single upstream call.
func (g *Gateway) complete(ctx context.Context, promesa string, ex *exchange) (string, error) {
	req := &providers.CompletionRequest{
		Model:           g.model,
		Prompt:          prompt.Render(promesa),
		SafetySettings:  g.safety,
		Temperature:     g.temperature,
		MaxOutputTokens: g.maxOutput,
	}

	ex.upstreamCalled = true
	start := time.Now()
	resp, err := g.provider.SendCompletion(ctx, req)
	ex.upstreamLatency = time.Since(start)

	if err != nil {
		return "", &UpstreamError{Stage: "completion", Err: err}
	}

	if resp.Model != "" {
		ex.model = resp.Model
	}
	ex.usage = resp.Usage
	if resp.Latency > 0 {
		ex.upstreamLatency = resp.Latency
	}
	return resp.Content, nil
}


// observe emits the log line, metrics, and audit record for one request.
func (g *Gateway) observe(ctx context.Context, req *IncomingRequest, ex *exchange, resp *Response, duration time.Duration) {
	outcome := outcomeFor(ex.err)
	clientHash := audit.HashClient(req.ClientIdentifier)

	attrs := []any{
		"request_id", req.RequestID,
		"outcome", outcome,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"client_hash", clientHash,
		"origin", req.Origin,
	}
	if ex.upstreamCalled {
		attrs = append(attrs,
			"model", ex.model,
			"upstream_ms", ex.upstreamLatency.Milliseconds(),
			"prompt_chars", ex.promptChars,
			"reply_chars", ex.replyChars,
		)
	}

	switch {
	case resp.StatusCode >= 500:
		g.logger.ErrorContext(ctx, "generate request failed", append(attrs, "error", ex.err)...)
	case resp.StatusCode >= 400:
		g.logger.WarnContext(ctx, "generate request rejected", append(attrs, "reason", ex.err)...)
	default:
		g.logger.InfoContext(ctx, "generate request completed", attrs...)
	}

	g.metrics.RecordRequest(outcome, resp.StatusCode, duration)
	if ex.rateLimitResult != "" {
		g.metrics.RecordRateLimitCheck(ex.rateLimitResult)
	}
	if ex.upstreamCalled {
		result := "success"
		var upstreamErr *UpstreamError
		if errors.As(ex.err, &upstreamErr) {
			result = strings.TrimPrefix(errorType(ex.err), "completion.")
		}
		g.metrics.RecordUpstream(ex.model, result, ex.upstreamLatency)
		g.metrics.RecordUpstreamTokens(ex.model, ex.usage.PromptTokens, ex.usage.CompletionTokens)
	}

	if g.recorder == nil {
		return
	}
	record := &audit.Record{
		RequestID:       req.RequestID,
		ReceivedAt:      req.ReceivedAt,
		Origin:          req.Origin,
		ClientHash:      clientHash,
		Method:          req.Method,
		StatusCode:      resp.StatusCode,
		Outcome:         outcome,
		ErrorType:       errorType(ex.err),
		PromptChars:     ex.promptChars,
		ReplyChars:      ex.replyChars,
		UpstreamLatency: ex.upstreamLatency,
	}
	if ex.upstreamCalled {
		record.Model = ex.model
	}
	if err := g.recorder.Record(context.WithoutCancel(ctx), record); err != nil {
		g.logger.WarnContext(ctx, "audit record dropped", "request_id", req.RequestID, "error", err)
	}
}
