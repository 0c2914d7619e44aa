// internal/repositories/interfaces/interfaces.go
package interfaces

import (
	"context"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the row does not exist.

type PlatformRepository interface {
	ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error)
	GetActiveBySlug(ctx context.Context, slug string) (*models.PlatformDescriptor, error)
	// EnsureDefaults inserts the given descriptors, leaving existing slugs untouched.
	EnsureDefaults(ctx context.Context, platforms []*models.PlatformDescriptor) error
}

type TemplateRepository interface {
	GetActiveByID(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error)
	Create(ctx context.Context, template *models.QueryTemplate) error
}

type KeywordRepository interface {
	ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Keyword, error)
	Create(ctx context.Context, keyword *models.Keyword) error
}

type QueryRepository interface {
	Create(ctx context.Context, query *models.Query) error
	// UpdateStatus moves a query to status. errMsg and cost are written only when non-nil.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.QueryStatus, errMsg *string, cost *float64) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.QueryHistoryEntry, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error)
}

type MentionRepository interface {
	BulkCreate(ctx context.Context, mentions []*models.BrandMention) error
	ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.BrandMention, error)
}

type CitationRepository interface {
	BulkCreate(ctx context.Context, citations []*models.Citation) error
	ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.Citation, error)
}
