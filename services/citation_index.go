// services/citation_index.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/google/uuid"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
)

const citationCollection = "citations"

type citationIndex struct {
	client *typesense.Client
	log    logger.Logger
}

// NewTypesenseClient connects to the configured Typesense node
func NewTypesenseClient(cfg config.TypesenseConfig) *typesense.Client {
	return typesense.NewClient(
		typesense.WithServer(fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(10*time.Second),
	)
}

func NewCitationIndex(client *typesense.Client, log logger.Logger) CitationIndex {
	return &citationIndex{
		client: client,
		log:    logger.Component(log, "CitationIndex"),
	}
}

func (i *citationIndex) EnsureCollection(ctx context.Context) error {
	facet := true
	sort := true
	defaultSortField := "created_at"
	schema := &api.CollectionSchema{
		Name: citationCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "response_id", Type: "string", Facet: &facet},
			{Name: "company_id", Type: "string", Facet: &facet},
			{Name: "url", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "domain", Type: "string", Facet: &facet},
			{Name: "excerpt", Type: "string"},
			{Name: "citation_type", Type: "string", Facet: &facet},
			{Name: "relevance_score", Type: "float"},
			{Name: "created_at", Type: "int64", Sort: &sort},
		},
		DefaultSortingField: &defaultSortField,
	}

	_, err := i.client.Collections().Create(ctx, schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create typesense collection %s: %w", citationCollection, err)
	}
	return nil
}

func (i *citationIndex) IndexCitations(ctx context.Context, companyID uuid.UUID, citations []*models.Citation) error {
	if len(citations) == 0 {
		return nil
	}

	docs := make([]interface{}, len(citations))
	for n, c := range citations {
		created := c.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		docs[n] = map[string]interface{}{
			"id":              c.ID.String(),
			"response_id":     c.ResponseID.String(),
			"company_id":      companyID.String(),
			"url":             c.URL,
			"title":           c.Title,
			"domain":          c.Domain,
			"excerpt":         c.Excerpt,
			"citation_type":   string(c.CitationType),
			"relevance_score": c.RelevanceScore,
			"created_at":      created.Unix(),
		}
	}

	action := "upsert"
	results, err := i.client.Collection(citationCollection).Documents().Import(ctx, docs, &api.ImportDocumentsParams{Action: &action})
	if err != nil {
		return fmt.Errorf("failed to import citations: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r != nil && !r.Success {
			failed++
			i.log.Warn("citation import rejected", logger.Fields{"error": r.Error})
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d citations rejected by index", failed, len(citations))
	}
	return nil
}

func (i *citationIndex) Search(ctx context.Context, query string, limit int) ([]*models.Citation, error) {
	if limit <= 0 {
		limit = 10
	}
	queryBy := "title,excerpt,url,domain"
	result, err := i.client.Collection(citationCollection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       &query,
		QueryBy: &queryBy,
		PerPage: &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search citations: %w", err)
	}

	citations := []*models.Citation{}
	if result.Hits == nil {
		return citations, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		citations = append(citations, citationFromDocument(*hit.Document))
	}
	return citations, nil
}

func citationFromDocument(doc map[string]interface{}) *models.Citation {
	str := func(key string) string {
		s, _ := doc[key].(string)
		return s
	}
	c := &models.Citation{
		URL:          str("url"),
		Title:        str("title"),
		Domain:       str("domain"),
		Excerpt:      str("excerpt"),
		CitationType: models.CitationType(str("citation_type")),
	}
	c.ID, _ = uuid.Parse(str("id"))
	c.ResponseID, _ = uuid.Parse(str("response_id"))
	if score, ok := doc["relevance_score"].(float64); ok {
		c.RelevanceScore = score
	}
	if ts, ok := doc["created_at"].(float64); ok {
		c.CreatedAt = time.Unix(int64(ts), 0).UTC()
	}
	return c
}
