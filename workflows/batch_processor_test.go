package workflows

import (
	"context"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/memory"
	"github.com/AI-Template-SDK/senso-query-engine/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchEventRoundTrip(t *testing.T) {
	req := services.BatchRequest{
		CompanyID:  uuid.New(),
		TemplateID: uuid.New(),
		Platforms:  []string{"openai", "google"},
		Variables:  services.TemplateVariables{"category": "CRM"},
		QueryType:  "benchmark",
	}

	evt := NewBatchEvent(req)
	assert.Equal(t, BatchRequestedEvent, evt.Name)

	data := BatchRequestedData{
		CompanyID:  evt.Data["company_id"].(string),
		TemplateID: evt.Data["template_id"].(string),
		Platforms:  evt.Data["platforms"].([]string),
		Variables:  evt.Data["variables"].(map[string]interface{}),
		QueryType:  evt.Data["query_type"].(string),
	}
	got, err := data.toRequest()
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestBatchRequestedDataRejectsBadIDs(t *testing.T) {
	_, err := BatchRequestedData{CompanyID: "nope", TemplateID: uuid.NewString()}.toRequest()
	assert.ErrorContains(t, err, "invalid company_id")

	_, err = BatchRequestedData{CompanyID: uuid.NewString(), TemplateID: ""}.toRequest()
	assert.ErrorContains(t, err, "invalid template_id")
}

func TestProcessResultsMinesCompletedResponses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := services.NewMemoryRepositoryManager(store)
	require.NoError(t, repos.PlatformRepo.EnsureDefaults(ctx, testutil.SamplePlatforms()))
	tmpl := testutil.SampleTemplate()
	require.NoError(t, repos.TemplateRepo.Create(ctx, tmpl))

	companyID := uuid.New()
	for _, kw := range testutil.SampleKeywords(companyID, "Acme") {
		require.NoError(t, repos.KeywordRepo.Create(ctx, kw))
	}

	answer := &testutil.MockAdapter{Name: "openai", QueryFunc: func(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error) {
		return testutil.SampleNormalizedResponse("openai", "Acme is the best option, see https://acme.com."), nil
	}}
	log := logger.NewTestLogger(t)
	engine := services.NewQueryEngine(testutil.SampleConfig(), repos, providers.NewStaticRegistry(answer), services.NewTemplateService(), services.NewCostService(), log)
	processor := services.NewResponseProcessor(repos, services.NewMentionDetector(), services.NewCitationExtractor(config.CitationConfig{}), nil, log)

	req := services.BatchRequest{
		CompanyID:  companyID,
		TemplateID: tmpl.ID,
		Platforms:  []string{"openai", "bing"},
		Variables:  services.TemplateVariables{"category": "CRM", "audience": "startups"},
	}
	results, err := engine.ExecuteBatch(ctx, req)
	require.NoError(t, err)

	p := NewBatchProcessor(engine, processor, log)
	processed := p.processResults(ctx, companyID, results)
	require.Len(t, processed, 1)
	assert.Len(t, processed[0].BrandMentions, 1)
	assert.Len(t, processed[0].Citations, 1)

	summary := summarizeBatch(req, results, processed)
	assert.Equal(t, 2, summary["total"])
	assert.Equal(t, 1, summary["completed"])
	assert.Equal(t, 1, summary["failed"])
	assert.Equal(t, 1, summary["mentions"])
	assert.Equal(t, 1, summary["citations"])
}
