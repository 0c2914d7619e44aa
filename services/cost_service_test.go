package services

import (
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCalculateCost(t *testing.T) {
	svc := NewCostService()

	tests := []struct {
		name     string
		platform *models.PlatformDescriptor
		usage    *models.TokenUsage
		want     float64
	}{
		{"no usage charges base price", &models.PlatformDescriptor{CostPerQuery: 0.03}, nil, 0.03},
		{"scales with total tokens", &models.PlatformDescriptor{CostPerQuery: 0.03}, &models.TokenUsage{TotalTokens: intPtr(2000)}, 0.06},
		{"never below half price", &models.PlatformDescriptor{CostPerQuery: 0.04}, &models.TokenUsage{TotalTokens: intPtr(100)}, 0.02},
		{"small prices round to zero", &models.PlatformDescriptor{CostPerQuery: 0.002}, &models.TokenUsage{TotalTokens: intPtr(500)}, 0},
		{"derives total from parts", &models.PlatformDescriptor{CostPerQuery: 0.02}, &models.TokenUsage{PromptTokens: intPtr(1000), CompletionTokens: intPtr(2000)}, 0.06},
		{"free platform", &models.PlatformDescriptor{CostPerQuery: 0}, &models.TokenUsage{TotalTokens: intPtr(5000)}, 0},
		{"nil platform", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, svc.CalculateCost(tt.platform, tt.usage), 1e-9)
		})
	}
}
