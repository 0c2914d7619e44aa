package postgresql

import (
	"context"
	"fmt"

	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/google/uuid"
)

type keywordRepo struct {
	db *database.Client
}

func NewKeywordRepo(db *database.Client) interfaces.KeywordRepository {
	return &keywordRepo{db: db}
}

func (r *keywordRepo) ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Keyword, error) {
	var keywords []*models.Keyword
	query := `SELECT id, company_id, keyword, is_active FROM company_keywords
		WHERE company_id = $1 AND is_active = TRUE ORDER BY keyword`
	if err := r.db.SelectContext(ctx, &keywords, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to list keywords for company %s: %w", companyID, err)
	}
	return keywords, nil
}

func (r *keywordRepo) Create(ctx context.Context, k *models.Keyword) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	query := `INSERT INTO company_keywords (id, company_id, keyword, is_active)
		VALUES (:id, :company_id, :keyword, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, k); err != nil {
		return fmt.Errorf("failed to create keyword: %w", err)
	}
	return nil
}
