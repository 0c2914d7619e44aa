package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/google/uuid"
)

const platformColumns = `id, name, slug, is_active, requests_per_minute, cost_per_query`

type platformRepo struct {
	db *database.Client
}

func NewPlatformRepo(db *database.Client) interfaces.PlatformRepository {
	return &platformRepo{db: db}
}

func (r *platformRepo) ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	var platforms []*models.PlatformDescriptor
	query := `SELECT ` + platformColumns + ` FROM ai_platforms WHERE is_active = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &platforms, query); err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	return platforms, nil
}

func (r *platformRepo) GetActiveBySlug(ctx context.Context, slug string) (*models.PlatformDescriptor, error) {
	var p models.PlatformDescriptor
	query := `SELECT ` + platformColumns + ` FROM ai_platforms WHERE slug = $1 AND is_active = TRUE`
	if err := r.db.GetContext(ctx, &p, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get platform %s: %w", slug, err)
	}
	return &p, nil
}

func (r *platformRepo) EnsureDefaults(ctx context.Context, platforms []*models.PlatformDescriptor) error {
	query := `INSERT INTO ai_platforms (` + platformColumns + `)
		VALUES (:id, :name, :slug, :is_active, :requests_per_minute, :cost_per_query)
		ON CONFLICT (slug) DO NOTHING`
	for _, p := range platforms {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
			return fmt.Errorf("failed to seed platform %s: %w", p.Slug, err)
		}
	}
	return nil
}
