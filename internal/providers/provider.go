// internal/providers/provider.go
package providers

import (
	"context"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
)

// Adapter is implemented once per AI backend
type Adapter interface {
	Query(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error)
	GetProviderName() string
}
