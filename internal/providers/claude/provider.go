// internal/providers/claude/provider.go
package claude

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	Slug  = "anthropic"
	label = "Anthropic"
)

// Provider talks to the Anthropic messages API
type Provider struct {
	client   anthropic.Client
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
		settings.Model = "claude-3-haiku-20240307"
	}

	return &Provider{
		client:   anthropic.NewClient(opts...),
		settings: settings,
		log:      logger.Component(settings.Logger, "AnthropicProvider"),
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

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(p.settings.MaxTokens),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.Prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(p.settings.Temperature),
	})
	if err != nil {
		p.log.WithError(err).Warn("messages call failed", logger.Fields{"model": model})
		return nil, common.APIError(Slug, label, err)
	}

	elapsed := time.Since(start).Milliseconds()
	input := message.Usage.InputTokens
	output := message.Usage.OutputTokens

	return &models.NormalizedResponse{
		Platform: Slug,
		Model:    model,
		Content:  extractText(message),
		Usage: &models.TokenUsage{
			PromptTokens:     common.IntPtr(input),
			CompletionTokens: common.IntPtr(output),
			TotalTokens:      common.IntPtr(input + output),
		},
		ProcessingTimeMs: elapsed,
		Metadata: models.ResponseMetadata{
			ExternalID:   message.ID,
			FinishReason: string(message.StopReason),
		},
	}, nil
}

func extractText(message *anthropic.Message) string {
	var parts []string
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, variant.Text)
		}
	}
	return strings.Join(parts, "")
}
