package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/google/uuid"
)

const mentionColumns = `id, response_id, company_id, keyword_id, mention_text, context_before, context_after,
	sentiment, sentiment_score, position_in_response, is_primary_mention, created_at`

type mentionRepo struct {
	db *database.Client
}

func NewMentionRepo(db *database.Client) interfaces.MentionRepository {
	return &mentionRepo{db: db}
}

// BulkCreate inserts all mentions in one transaction.
func (r *mentionRepo) BulkCreate(ctx context.Context, mentions []*models.BrandMention) error {
	if len(mentions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO brand_mentions (` + mentionColumns + `)
		VALUES (:id, :response_id, :company_id, :keyword_id, :mention_text, :context_before, :context_after,
			:sentiment, :sentiment_score, :position_in_response, :is_primary_mention, :created_at)`
	now := time.Now().UTC()
	for _, m := range mentions {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
			return fmt.Errorf("failed to insert mention %q: %w", m.MentionText, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mentions: %w", err)
	}
	return nil
}

func (r *mentionRepo) ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.BrandMention, error) {
	var mentions []*models.BrandMention
	query := `SELECT ` + mentionColumns + ` FROM brand_mentions WHERE response_id = $1 ORDER BY position_in_response`
	if err := r.db.SelectContext(ctx, &mentions, query, responseID); err != nil {
		return nil, fmt.Errorf("failed to list mentions for response %s: %w", responseID, err)
	}
	return mentions, nil
}
