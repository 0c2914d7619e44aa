package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/google/uuid"
)

type templateRepo struct {
	db *database.Client
}

func NewTemplateRepo(db *database.Client) interfaces.TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error) {
	var t models.QueryTemplate
	query := `SELECT id, name, description, template, category, is_active, created_at, updated_at
		FROM query_templates WHERE id = $1 AND is_active = TRUE`
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}
	return &t, nil
}

func (r *templateRepo) Create(ctx context.Context, t *models.QueryTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	query := `INSERT INTO query_templates (id, name, description, template, category, is_active, created_at, updated_at)
		VALUES (:id, :name, :description, :template, :category, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}
