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

type responseRepo struct {
	db *database.Client
}

func NewResponseRepo(db *database.Client) interfaces.ResponseRepository {
	return &responseRepo{db: db}
}

func (r *responseRepo) Create(ctx context.Context, resp *models.Response) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	resp.CreatedAt = time.Now().UTC()

	query := `INSERT INTO ai_responses (id, query_id, response_text, response_metadata, processing_time_ms, confidence_score, created_at)
		VALUES (:id, :query_id, :response_text, :response_metadata, :processing_time_ms, :confidence_score, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resp); err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

func (r *responseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	var resp models.Response
	query := `SELECT id, query_id, response_text, response_metadata, processing_time_ms, confidence_score, created_at
		FROM ai_responses WHERE id = $1`
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get response %s: %w", id, err)
	}
	return &resp, nil
}
