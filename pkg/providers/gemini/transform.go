package gemini

import (
	"fmt"
	"strings"

	"guionesreels/ideagate/pkg/prompt"
	"guionesreels/ideagate/pkg/providers"
)

// GenerateContentRequest is the generateContent request body.
type GenerateContentRequest struct {
	Contents         []Content              `json:"contents"`
	SafetySettings   []prompt.SafetySetting `json:"safetySettings,omitempty"`
	GenerationConfig *GenerationConfig      `json:"generationConfig,omitempty"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a piece of a turn. Only text parts are produced or read.
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig tunes sampling.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateContentResponse is the generateContent response body.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// Candidate is one generated reply.
type Candidate struct {
	Content       *Content       `json:"content,omitempty"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// PromptFeedback reports whether the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// SafetyRating is the service's assessment for one harm category.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// UsageMetadata reports token counts.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Candidate finish reasons.
const (
	FinishReasonStop       = "STOP"
	FinishReasonMaxTokens  = "MAX_TOKENS"
	FinishReasonSafety     = "SAFETY"
	FinishReasonRecitation = "RECITATION"
	FinishReasonBlocklist  = "BLOCKLIST"
	FinishReasonProhibited = "PROHIBITED_CONTENT"
	FinishReasonSPII       = "SPII"
)

var blockingFinishReasons = map[string]bool{
	FinishReasonSafety:     true,
	FinishReasonRecitation: true,
	FinishReasonBlocklist:  true,
	FinishReasonProhibited: true,
	FinishReasonSPII:       true,
}

// transformRequest converts a provider-agnostic request to the wire format.
func transformRequest(req *providers.CompletionRequest) *GenerateContentRequest {
	out := &GenerateContentRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: req.Prompt}},
		}},
		SafetySettings: req.SafetySettings,
	}

	if req.Temperature != nil || req.MaxOutputTokens > 0 {
		out.GenerationConfig = &GenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		}
	}

	return out
}

// transformResponse extracts the reply text, or reports why there is none.
// Only a blocked prompt, a missing candidate, or a blocking finish reason is
// an error; a candidate with empty or whitespace text is returned as is.
func transformResponse(providerName, model string, resp *GenerateContentResponse) (*providers.CompletionResponse, error) {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &providers.ContentBlockedError{
			Provider:   providerName,
			Reason:     fb.BlockReason,
			Categories: blockedCategories(fb.SafetyRatings),
		}
	}

	if len(resp.Candidates) == 0 {
		return nil, &providers.ContentBlockedError{
			Provider: providerName,
			Reason:   "NO_CANDIDATES",
		}
	}

	candidate := resp.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}

	if blockingFinishReasons[candidate.FinishReason] {
		return nil, &providers.ContentBlockedError{
			Provider:   providerName,
			Reason:     candidate.FinishReason,
			Categories: blockedCategories(candidate.SafetyRatings),
		}
	}

	out := &providers.CompletionResponse{
		Model:        model,
		Content:      text.String(),
		FinishReason: candidate.FinishReason,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = providers.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}

	return out, nil
}

func blockedCategories(ratings []SafetyRating) []string {
	var out []string
	for _, r := range ratings {
		if r.Blocked || r.Probability == "HIGH" || r.Probability == "MEDIUM" {
			out = append(out, fmt.Sprintf("%s=%s", r.Category, r.Probability))
		}
	}
	return out
}
