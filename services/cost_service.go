// services/cost_service.go
package services

import (
	"math"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
)

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// CalculateCost scales the platform's per-query price by token usage, never below half price.
// It is a linear estimate, not billing reconciliation.
func (s *costService) CalculateCost(platform *models.PlatformDescriptor, usage *models.TokenUsage) float64 {
	if platform == nil || platform.CostPerQuery == 0 {
		return 0
	}

	cost := platform.CostPerQuery
	if total, ok := usage.Total(); ok {
		cost *= math.Max(0.5, float64(total)/1000.0)
	}

	return math.Round(cost*100) / 100
}
