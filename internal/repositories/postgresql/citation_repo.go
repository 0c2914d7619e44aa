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

const citationColumns = `id, response_id, url, title, domain, author, published_date, excerpt,
	relevance_score, citation_type, is_verified, created_at`

type citationRepo struct {
	db *database.Client
}

func NewCitationRepo(db *database.Client) interfaces.CitationRepository {
	return &citationRepo{db: db}
}

// BulkCreate inserts all citations in one transaction.
func (r *citationRepo) BulkCreate(ctx context.Context, citations []*models.Citation) error {
	if len(citations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO citations (` + citationColumns + `)
		VALUES (:id, :response_id, :url, :title, :domain, :author, :published_date, :excerpt,
			:relevance_score, :citation_type, :is_verified, :created_at)`
	now := time.Now().UTC()
	for _, c := range citations {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("failed to insert citation %q: %w", c.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit citations: %w", err)
	}
	return nil
}

func (r *citationRepo) ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.Citation, error) {
	var citations []*models.Citation
	query := `SELECT ` + citationColumns + ` FROM citations WHERE response_id = $1 ORDER BY relevance_score DESC, created_at`
	if err := r.db.SelectContext(ctx, &citations, query, responseID); err != nil {
		return nil, fmt.Errorf("failed to list citations for response %s: %w", responseID, err)
	}
	return citations, nil
}
