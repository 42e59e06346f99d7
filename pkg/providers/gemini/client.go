package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"guionesreels/ideagate/pkg/providers"
)

const (
	// DefaultBaseURL is the public Generative Language endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when neither the config nor the request names one.
	DefaultModel = "gemini-1.5-flash"

	// APIKeyHeader carries the API key.
	APIKeyHeader = "x-goog-api-key"

	apiVersion = "v1beta"
)

// Provider is the Gemini provider adapter.
type Provider struct {
	*providers.HTTPProvider

	keys providers.KeySource
}

// NewProvider creates a Gemini provider that resolves its API key from keys.
func NewProvider(config providers.ProviderConfig, keys providers.KeySource) (*Provider, error) {
	if config.Name == "" {
		config.Name = "gemini"
	}
	if config.Type == "" {
		config.Type = "gemini"
	}
	if keys == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "an API key source is required for Gemini",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  err.Error(),
		}
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	base := providers.NewHTTPProvider(config)

	p := &Provider{
		HTTPProvider: base,
		keys:         keys,
	}
	base.SetHealthCheck(p.checkModel)

	slog.Info("Gemini provider initialized",
		"provider", config.Name,
		"model", config.Model,
		"throttle_rps", config.RequestsPerSecond,
	)

	return p, nil
}

// SendCompletion sends one generateContent request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.GetConfig().Model
	}

	headers, err := p.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var geminiResp GenerateContentResponse
	err = p.DoJSONRequest(ctx, http.MethodPost, p.modelURL(model)+":generateContent",
		transformRequest(req), &geminiResp, headers)
	latency := time.Since(start)
	if err != nil {
		return nil, p.mapError(err, model)
	}

	resp, err := transformResponse(p.GetName(), model, &geminiResp)
	if err != nil {
		slog.Warn("completion withheld",
			"provider", p.GetName(),
			"model", model,
			"error", err,
		)
		return nil, err
	}
	resp.Latency = latency

	slog.Debug("completion request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"latency", latency,
	)

	return resp, nil
}

// checkModel fetches the configured model's metadata. It verifies both
// reachability and the API key without spending generation quota.
func (p *Provider) checkModel(ctx context.Context) error {
	headers, err := p.authHeaders(ctx)
	if err != nil {
		return err
	}

	model := p.GetConfig().Model
	resp, err := p.DoRequest(ctx, http.MethodGet, p.modelURL(model), nil, headers)
	if err != nil {
		return p.mapError(err, model)
	}
	resp.Body.Close()
	return nil
}

func (p *Provider) authHeaders(ctx context.Context) (map[string]string, error) {
	key, err := p.keys.APIKey(ctx)
	if err != nil {
		return nil, &providers.ConfigError{
			Provider: p.GetName(),
			Field:    "api_key",
			Message:  fmt.Sprintf("failed to resolve API key: %v", err),
		}
	}
	if key == "" {
		return nil, &providers.ConfigError{
			Provider: p.GetName(),
			Field:    "api_key",
			Message:  "API key is empty",
		}
	}
	return map[string]string{
		APIKeyHeader:   key,
		"Content-Type": "application/json",
	}, nil
}

func (p *Provider) modelURL(model string) string {
	return fmt.Sprintf("%s/%s/models/%s", p.GetConfig().BaseURL, apiVersion, url.PathEscape(model))
}

// mapError turns a 404 into ModelNotFoundError; other errors pass through.
func (p *Provider) mapError(err error, model string) error {
	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) && providerErr.StatusCode == http.StatusNotFound {
		return &providers.ModelNotFoundError{Provider: p.GetName(), Model: model}
	}
	return err
}

// validateRequest validates the completion request.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return &providers.ValidationError{
			Field:   "prompt",
			Message: "prompt is required",
		}
	}
	if req.MaxOutputTokens < 0 {
		return &providers.ValidationError{
			Field:   "max_output_tokens",
			Message: "must not be negative",
		}
	}
	return nil
}
