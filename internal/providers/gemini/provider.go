// internal/providers/gemini/provider.go
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"google.golang.org/genai"
)

const (
	Slug  = "google"
	label = "Google AI"
)

// Provider calls Gemini through the genai SDK. The client is built on first
// use because the SDK refuses to construct without a key.
type Provider struct {
	settings common.Settings
	log      logger.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewProvider(settings common.Settings) *Provider {
	if settings.Model == "" {
		settings.Model = "gemini-2.0-flash"
	}
	return &Provider{
		settings: settings,
		log:      logger.Component(settings.Logger, "GeminiProvider"),
	}
}

func (p *Provider) GetProviderName() string {
	return Slug
}

func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  p.settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.settings.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.settings.BaseURL}
	}
	if hc, ok := p.settings.HTTPClient.(*http.Client); ok && hc != nil {
		cc.HTTPClient = hc
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *Provider) Query(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error) {
	budget := common.Budget(req.RequestsPerMinute, p.settings.RequestsPerMinute)
	if err := common.Preflight(ctx, p.settings.Limiter, Slug, label, p.settings.APIKey, budget); err != nil {
		return nil, err
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, common.NewPlatformError(Slug, common.CodeConfigError, "Google AI client configuration failed", err)
	}

	model := common.Model(req.ModelHint, p.settings.Model)
	start := time.Now()

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.settings.Temperature)),
		MaxOutputTokens: int32(p.settings.MaxTokens),
	})
	if err != nil {
		p.log.WithError(err).Warn("generate content failed", logger.Fields{"model": model})
		return nil, common.APIError(Slug, label, err)
	}

	resp := &models.NormalizedResponse{
		Platform:         Slug,
		Model:            model,
		Content:          result.Text(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Metadata: models.ResponseMetadata{
			ExternalID: result.ResponseID,
		},
	}
	if len(result.Candidates) > 0 {
		resp.Metadata.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = &models.TokenUsage{
			PromptTokens:     common.IntPtr(u.PromptTokenCount),
			CompletionTokens: common.IntPtr(u.CandidatesTokenCount),
			TotalTokens:      common.IntPtr(u.TotalTokenCount),
		}
	}
	return resp, nil
}
