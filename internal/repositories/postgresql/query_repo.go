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

const queryColumns = `id, company_id, ai_platform_id, template_id, query_text, query_type, status,
	sent_at, completed_at, error_message, cost, created_at, updated_at`

type queryRepo struct {
	db *database.Client
}

func NewQueryRepo(db *database.Client) interfaces.QueryRepository {
	return &queryRepo{db: db}
}

func (r *queryRepo) Create(ctx context.Context, q *models.Query) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now

	query := `INSERT INTO ai_queries (` + queryColumns + `)
		VALUES (:id, :company_id, :ai_platform_id, :template_id, :query_text, :query_type, :status,
			:sent_at, :completed_at, :error_message, :cost, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}
	return nil
}

func (r *queryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.QueryStatus, errMsg *string, cost *float64) error {
	query := `UPDATE ai_queries SET
			status = $2::text,
			error_message = COALESCE($3, error_message),
			cost = COALESCE($4, cost),
			sent_at = CASE WHEN $2::text = 'sent' THEN NOW() ELSE sent_at END,
			completed_at = CASE WHEN $2::text IN ('completed', 'failed') THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), errMsg, cost)
	if err != nil {
		return fmt.Errorf("failed to update query %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("query %s not found", id)
	}
	return nil
}

func (r *queryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	var q models.Query
	if err := r.db.GetContext(ctx, &q, `SELECT `+queryColumns+` FROM ai_queries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get query %s: %w", id, err)
	}
	return &q, nil
}

func (r *queryRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.QueryHistoryEntry, error) {
	query := `SELECT q.id, q.company_id, q.ai_platform_id, q.template_id, q.query_text, q.query_type, q.status,
			q.sent_at, q.completed_at, q.error_message, q.cost, q.created_at, q.updated_at,
			p.name AS platform_name, p.slug AS platform_slug,
			t.name AS template_name,
			LEFT(r.response_text, 500) AS response_text,
			r.processing_time_ms, r.confidence_score
		FROM ai_queries q
		JOIN ai_platforms p ON p.id = q.ai_platform_id
		LEFT JOIN query_templates t ON t.id = q.template_id
		LEFT JOIN ai_responses r ON r.query_id = q.id
		WHERE q.company_id = $1
		ORDER BY q.created_at DESC
		LIMIT $2`

	var entries []*models.QueryHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, companyID, limit); err != nil {
		return nil, fmt.Errorf("failed to list queries for company %s: %w", companyID, err)
	}
	return entries, nil
}
