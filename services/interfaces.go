// services/interfaces.go
package services

import (
	"context"

	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/memory"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/postgresql"
	"github.com/google/uuid"
)

// RepositoryManager manages all record repositories
type RepositoryManager struct {
	PlatformRepo interfaces.PlatformRepository
	TemplateRepo interfaces.TemplateRepository
	KeywordRepo  interfaces.KeywordRepository
	QueryRepo    interfaces.QueryRepository
	ResponseRepo interfaces.ResponseRepository
	MentionRepo  interfaces.MentionRepository
	CitationRepo interfaces.CitationRepository
}

// NewRepositoryManager creates a repository manager backed by Postgres
func NewRepositoryManager(db *database.Client) *RepositoryManager {
	return &RepositoryManager{
		PlatformRepo: postgresql.NewPlatformRepo(db),
		TemplateRepo: postgresql.NewTemplateRepo(db),
		KeywordRepo:  postgresql.NewKeywordRepo(db),
		QueryRepo:    postgresql.NewQueryRepo(db),
		ResponseRepo: postgresql.NewResponseRepo(db),
		MentionRepo:  postgresql.NewMentionRepo(db),
		CitationRepo: postgresql.NewCitationRepo(db),
	}
}

// NewMemoryRepositoryManager creates a repository manager backed by an in-process store
func NewMemoryRepositoryManager(store *memory.Store) *RepositoryManager {
	return &RepositoryManager{
		PlatformRepo: store.Platforms(),
		TemplateRepo: store.Templates(),
		KeywordRepo:  store.Keywords(),
		QueryRepo:    store.Queries(),
		ResponseRepo: store.Responses(),
		MentionRepo:  store.Mentions(),
		CitationRepo: store.Citations(),
	}
}

// DefaultPlatforms are seeded on startup so a fresh database can dispatch immediately
func DefaultPlatforms() []*models.PlatformDescriptor {
	return []*models.PlatformDescriptor{
		{Name: "OpenAI GPT-4", Slug: "openai", IsActive: true, RequestsPerMinute: 60, CostPerQuery: 0.03},
		{Name: "Anthropic Claude", Slug: "anthropic", IsActive: true, RequestsPerMinute: 40, CostPerQuery: 0.025},
		{Name: "Perplexity", Slug: "perplexity", IsActive: true, RequestsPerMinute: 50, CostPerQuery: 0.02},
		{Name: "Google Gemini", Slug: "google", IsActive: true, RequestsPerMinute: 60, CostPerQuery: 0.02},
	}
}

// TemplateVariables maps placeholder names to a string, a list of strings, or a scalar
type TemplateVariables map[string]interface{}

// TemplateService resolves and validates {placeholder} prompt templates
type TemplateService interface {
	Resolve(template string, variables TemplateVariables) string
	Validate(template string, variables TemplateVariables) []string
}

// CostService estimates the monetary cost of one completed query
type CostService interface {
	CalculateCost(platform *models.PlatformDescriptor, usage *models.TokenUsage) float64
}

// MentionDetector finds keyword occurrences and scores their sentiment
type MentionDetector interface {
	DetectMentions(text string, keywords []*models.Keyword) []*models.BrandMention
}

// CitationExtractor pulls citations from response text and backend metadata
type CitationExtractor interface {
	ExtractCitations(text string, metadata models.ResponseMetadata) []*models.Citation
}

// CitationIndex is the full-text search index over extracted citations
type CitationIndex interface {
	EnsureCollection(ctx context.Context) error
	IndexCitations(ctx context.Context, companyID uuid.UUID, citations []*models.Citation) error
	Search(ctx context.Context, query string, limit int) ([]*models.Citation, error)
}

// ProcessingResult is the outcome of mining one response
type ProcessingResult struct {
	ResponseID       uuid.UUID              `json:"response_id"`
	BrandMentions    []*models.BrandMention `json:"brand_mentions"`
	Citations        []*models.Citation     `json:"citations"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	Errors           []string               `json:"errors"`
}

// ResponseProcessor persists a response and everything derived from it
type ResponseProcessor interface {
	ProcessResponse(ctx context.Context, companyID uuid.UUID, response *models.Response) (*ProcessingResult, error)
	// ProcessStoredResponse loads a stored response by ID and mines it. A missing response yields nil, nil.
	ProcessStoredResponse(ctx context.Context, companyID, responseID uuid.UUID) (*ProcessingResult, error)
	GetProcessedResponse(ctx context.Context, responseID uuid.UUID) (*models.ProcessedResponse, error)
}

// QueryRequest describes a single dispatch
type QueryRequest struct {
	CompanyID  uuid.UUID
	Platform   string
	PromptText string
	QueryType  string
	TemplateID *uuid.UUID
}

// BatchRequest describes a templated dispatch to several platforms
type BatchRequest struct {
	CompanyID  uuid.UUID         `json:"company_id"`
	TemplateID uuid.UUID         `json:"template_id"`
	Platforms  []string          `json:"platforms"`
	Variables  TemplateVariables `json:"variables"`
	QueryType  string            `json:"query_type,omitempty"`
}

// QueryEngine drives queries through their lifecycle
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, req QueryRequest) *models.QueryResult
	ExecuteBatch(ctx context.Context, req BatchRequest) ([]*models.QueryResult, error)
	GetQueryHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.QueryHistoryEntry, error)
	ListPlatforms(ctx context.Context) ([]*models.PlatformDescriptor, error)
}
