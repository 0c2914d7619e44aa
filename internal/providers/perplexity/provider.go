// internal/providers/perplexity/provider.go
package perplexity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
)

const (
	Slug           = "perplexity"
	label          = "Perplexity"
	defaultBaseURL = "https://api.perplexity.ai"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	MaxTokens       int           `json:"max_tokens"`
	Temperature     float64       `json:"temperature"`
	ReturnCitations bool          `json:"return_citations"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     *int `json:"prompt_tokens"`
		CompletionTokens *int `json:"completion_tokens"`
		TotalTokens      *int `json:"total_tokens"`
	} `json:"usage"`
	Citations []json.RawMessage `json:"citations"`
}

// Provider calls the Perplexity chat completions endpoint over plain HTTP
type Provider struct {
	client   *common.JSONClient
	settings common.Settings
	log      logger.Logger
}

func NewProvider(settings common.Settings) *Provider {
	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURL
	}
	if settings.Model == "" {
		settings.Model = "llama-3.1-sonar-small-128k-online"
	}
	return &Provider{
		client:   common.NewJSONClient(settings.APIKey, strings.TrimRight(settings.BaseURL, "/"), settings.HTTPClient),
		settings: settings,
		log:      logger.Component(settings.Logger, "PerplexityProvider"),
	}
}

func (p *Provider) GetProviderName() string {
	return Slug
}

func (p *Provider) Query(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error) {
	budget := common.Budget(req.RequestsPerMinute, p.settings.RequestsPerMinute)
	if err := common.Preflight(ctx, p.settings.Limiter, Slug, label, p.settings.APIKey, budget); err != nil {
		return nil, err
	}

	model := common.Model(req.ModelHint, p.settings.Model)
	start := time.Now()

	var out chatResponse
	err := p.client.PostJSON(ctx, "/chat/completions", chatRequest{
		Model:           model,
		Messages:        []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:       p.settings.MaxTokens,
		Temperature:     p.settings.Temperature,
		ReturnCitations: true,
	}, &out)
	if err != nil {
		p.log.WithError(err).Warn("chat completion failed", logger.Fields{"model": model})
		return nil, common.APIError(Slug, label, err)
	}

	content := ""
	finishReason := ""
	if len(out.Choices) > 0 {
		content = out.Choices[0].Message.Content
		finishReason = out.Choices[0].FinishReason
	}

	resp := &models.NormalizedResponse{
		Platform:         Slug,
		Model:            model,
		Content:          content,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Metadata: models.ResponseMetadata{
			Citations:    parseCitations(out.Citations),
			ExternalID:   out.ID,
			Created:      out.Created,
			FinishReason: finishReason,
		},
	}
	if out.Usage != nil {
		resp.Usage = &models.TokenUsage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}
	return resp, nil
}

// parseCitations accepts both bare URL strings and citation objects.
func parseCitations(raw []json.RawMessage) []models.RawCitation {
	if len(raw) == 0 {
		return nil
	}
	citations := make([]models.RawCitation, 0, len(raw))
	for _, item := range raw {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			if url != "" {
				citations = append(citations, models.RawCitation{URL: url})
			}
			continue
		}
		var c models.RawCitation
		if err := json.Unmarshal(item, &c); err == nil && (c.URL != "" || c.Title != "") {
			citations = append(citations, c)
		}
	}
	return citations
}
