package testutil

import (
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/google/uuid"
)

// SampleConfig returns a test configuration with every backend configured
func SampleConfig() *config.Config {
	return &config.Config{
		Port:        "8000",
		Environment: "test",
		LogLevel:    "debug",
		OpenAI: config.PlatformConfig{
			APIKey: "test-openai-key", Model: "gpt-4", RequestsPerMinute: 60, CostPerQuery: 0.03,
		},
		Anthropic: config.PlatformConfig{
			APIKey: "test-anthropic-key", Model: "claude-3-haiku-20240307", RequestsPerMinute: 40, CostPerQuery: 0.025,
		},
		Perplexity: config.PlatformConfig{
			APIKey: "test-perplexity-key", Model: "llama-3.1-sonar-small-128k-online", RequestsPerMinute: 50, CostPerQuery: 0.02,
		},
		Gemini: config.PlatformConfig{
			APIKey: "test-gemini-key", Model: "gemini-2.0-flash", RequestsPerMinute: 60, CostPerQuery: 0.02,
		},
		MaxTokens:        2000,
		Temperature:      0.7,
		QueryTimeout:     5 * time.Second,
		BatchGrace:       time.Second,
		RateLimitBackend: "memory",
		Citations: config.CitationConfig{
			MetadataRelevance:  0.5,
			InlineRelevance:    0.5,
			ReferenceRelevance: 0.3,
		},
	}
}

// SampleSettings returns adapter settings pointed at baseURL, with no limiter
func SampleSettings(baseURL string) common.Settings {
	return common.Settings{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		MaxTokens:   2000,
		Temperature: 0.7,
		Logger:      logger.NewNoOpLogger(),
	}
}

// SamplePlatforms returns the four default platform descriptors
func SamplePlatforms() []*models.PlatformDescriptor {
	return []*models.PlatformDescriptor{
		{ID: uuid.New(), Name: "OpenAI GPT-4", Slug: "openai", IsActive: true, RequestsPerMinute: 60, CostPerQuery: 0.03},
		{ID: uuid.New(), Name: "Anthropic Claude", Slug: "anthropic", IsActive: true, RequestsPerMinute: 40, CostPerQuery: 0.025},
		{ID: uuid.New(), Name: "Perplexity", Slug: "perplexity", IsActive: true, RequestsPerMinute: 50, CostPerQuery: 0.02},
		{ID: uuid.New(), Name: "Google Gemini", Slug: "google", IsActive: true, RequestsPerMinute: 60, CostPerQuery: 0.02},
	}
}

// SampleTemplate returns an active template with two placeholders
func SampleTemplate() *models.QueryTemplate {
	return &models.QueryTemplate{
		ID:       uuid.New(),
		Name:     "Category leaders",
		Template: "What are the best {category} tools for {audience}?",
		Category: "comparison",
		IsActive: true,
	}
}

// SampleKeywords returns active keywords for companyID
func SampleKeywords(companyID uuid.UUID, words ...string) []*models.Keyword {
	out := make([]*models.Keyword, 0, len(words))
	for _, w := range words {
		out = append(out, &models.Keyword{ID: uuid.New(), CompanyID: companyID, Keyword: w, IsActive: true})
	}
	return out
}

// SampleNormalizedResponse returns a successful adapter reply
func SampleNormalizedResponse(platform, content string) *models.NormalizedResponse {
	total := 1000
	return &models.NormalizedResponse{
		Platform:         platform,
		Model:            "test-model",
		Content:          content,
		Usage:            &models.TokenUsage{TotalTokens: &total},
		ProcessingTimeMs: 12,
	}
}

// SamplePerplexityResponse returns a chat completion body with mixed citation shapes
func SamplePerplexityResponse() string {
	return `{
		"id": "pplx-1",
		"model": "llama-3.1-sonar-small-128k-online",
		"created": 1717000000,
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "Acme is widely recommended [1]."},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 32, "total_tokens": 42},
		"citations": [
			"https://news.example.com/acme",
			{"url": "https://blog.example.org/review", "title": "Acme review"}
		]
	}`
}
