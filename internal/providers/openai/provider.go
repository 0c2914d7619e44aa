// internal/providers/openai/provider.go
package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	Slug  = "openai"
	label = "OpenAI"
)

// Provider talks to the OpenAI chat completions API
type Provider struct {
	client   openaisdk.Client
	settings common.Settings
	log      logger.Logger
}

func NewProvider(settings common.Settings) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	if hc, ok := settings.HTTPClient.(*http.Client); ok && hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	if settings.Model == "" {
		settings.Model = "gpt-4"
	}

	return &Provider{
		client:   openaisdk.NewClient(opts...),
		settings: settings,
		log:      logger.Component(settings.Logger, "OpenAIProvider"),
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

	completion, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(req.Prompt),
		},
		MaxTokens:   openaisdk.Int(int64(p.settings.MaxTokens)),
		Temperature: openaisdk.Float(p.settings.Temperature),
	})
	if err != nil {
		p.log.WithError(err).Warn("chat completion failed", logger.Fields{"model": model})
		return nil, common.APIError(Slug, label, err)
	}

	content := ""
	finishReason := ""
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
		finishReason = string(completion.Choices[0].FinishReason)
	}

	elapsed := time.Since(start).Milliseconds()
	p.log.Debug("chat completion finished", logger.Fields{
		"model":             model,
		"processing_ms":     elapsed,
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	})

	return &models.NormalizedResponse{
		Platform: Slug,
		Model:    model,
		Content:  content,
		Usage: &models.TokenUsage{
			PromptTokens:     common.IntPtr(completion.Usage.PromptTokens),
			CompletionTokens: common.IntPtr(completion.Usage.CompletionTokens),
			TotalTokens:      common.IntPtr(completion.Usage.TotalTokens),
		},
		ProcessingTimeMs: elapsed,
		Metadata: models.ResponseMetadata{
			ExternalID:   completion.ID,
			Created:      completion.Created,
			FinishReason: finishReason,
		},
	}, nil
}
