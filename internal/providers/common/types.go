package common

import (
	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/ratelimit"
)

// Settings is everything an adapter needs from configuration
type Settings struct {
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerMinute int
	MaxTokens         int
	Temperature       float64
	HTTPClient        HTTPDoer
	Limiter           ratelimit.Limiter
	Logger            logger.Logger
}

// SettingsFor builds adapter settings for a canonical platform slug.
func SettingsFor(cfg *config.Config, slug string, limiter ratelimit.Limiter, log logger.Logger) Settings {
	s := Settings{
		MaxTokens:   2000,
		Temperature: 0.7,
		Limiter:     limiter,
		Logger:      log,
	}
	if cfg == nil {
		return s
	}

	if pc, ok := cfg.Platform(slug); ok {
		s.APIKey = pc.APIKey
		s.Model = pc.Model
		s.BaseURL = pc.BaseURL
		s.RequestsPerMinute = pc.RequestsPerMinute
	}
	if cfg.MaxTokens > 0 {
		s.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		s.Temperature = cfg.Temperature
	}
	return s
}
