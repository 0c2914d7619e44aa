// services/query_engine.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/metrics"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryLimit = 50
	defaultQueryTimeout = 60 * time.Second
	defaultBatchGrace   = 5 * time.Second
)

type queryEngine struct {
	repos        *RepositoryManager
	adapters     *providers.Registry
	templates    TemplateService
	costs        CostService
	queryTimeout time.Duration
	batchGrace   time.Duration
	log          logger.Logger
	tracer       trace.Tracer
}

func NewQueryEngine(cfg *config.Config, repos *RepositoryManager, adapters *providers.Registry, templates TemplateService, costs CostService, log logger.Logger) QueryEngine {
	e := &queryEngine{
		repos:        repos,
		adapters:     adapters,
		templates:    templates,
		costs:        costs,
		queryTimeout: defaultQueryTimeout,
		batchGrace:   defaultBatchGrace,
		log:          logger.Component(log, "QueryEngine"),
		tracer:       otel.Tracer("github.com/AI-Template-SDK/senso-query-engine/services"),
	}
	if cfg != nil {
		if cfg.QueryTimeout > 0 {
			e.queryTimeout = cfg.QueryTimeout
		}
		if cfg.BatchGrace > 0 {
			e.batchGrace = cfg.BatchGrace
		}
	}
	return e
}

// ExecuteQuery runs one query through pending, sent and then completed or failed.
// Every failure is reported inside the result.
func (e *queryEngine) ExecuteQuery(ctx context.Context, req QueryRequest) *models.QueryResult {
	return e.executeQuery(ctx, req, nil)
}

// executeQuery reports the stored query ID to onCreated as soon as the row exists.
func (e *queryEngine) executeQuery(ctx context.Context, req QueryRequest, onCreated func(uuid.UUID)) *models.QueryResult {
	slug := providers.CanonicalSlug(req.Platform)
	ctx, span := e.tracer.Start(ctx, "query.execute", trace.WithAttributes(
		attribute.String("platform", slug),
		attribute.String("company_id", req.CompanyID.String()),
	))
	defer span.End()

	queryType := req.QueryType
	if queryType == "" {
		queryType = "test"
	}

	result := &models.QueryResult{
		CompanyID:  req.CompanyID,
		Platform:   slug,
		TemplateID: req.TemplateID,
		QueryText:  req.PromptText,
		QueryType:  queryType,
		Status:     models.QueryStatusFailed,
		CreatedAt:  time.Now().UTC(),
	}
	fail := func(code, message string) *models.QueryResult {
		result.Status = models.QueryStatusFailed
		result.ErrorCode = code
		result.ErrorMessage = message
		span.SetStatus(codes.Error, message)
		metrics.QueriesTotal.WithLabelValues(slug, string(models.QueryStatusFailed)).Inc()
		metrics.QueryFailures.WithLabelValues(slug, code).Inc()
		return result
	}

	platform, err := e.repos.PlatformRepo.GetActiveBySlug(ctx, slug)
	if err != nil {
		e.log.WithError(err).Error("failed to load platform", logger.Fields{"platform": slug})
		return fail(common.CodeStorageError, "Failed to load AI platform")
	}
	if platform == nil {
		return fail(common.CodeValidationError, fmt.Sprintf("AI platform not found: %s", slug))
	}
	result.PlatformID = platform.ID

	adapter, ok := e.adapters.Get(slug)
	if !ok {
		return fail(common.CodeConfigError, fmt.Sprintf("No adapter registered for platform: %s", slug))
	}

	query := &models.Query{
		CompanyID:  req.CompanyID,
		PlatformID: platform.ID,
		TemplateID: req.TemplateID,
		QueryText:  req.PromptText,
		QueryType:  queryType,
		Status:     models.QueryStatusPending,
	}
	if err := e.repos.QueryRepo.Create(ctx, query); err != nil {
		e.log.WithError(err).Error("failed to store query", logger.Fields{"platform": slug})
		return fail(common.CodeStorageError, "Failed to store query in database")
	}
	result.ID = query.ID
	result.CreatedAt = query.CreatedAt
	if onCreated != nil {
		onCreated(query.ID)
	}
	span.SetAttributes(attribute.String("query_id", query.ID.String()))

	// Status writes must land even if the caller has gone away.
	writeCtx := context.WithoutCancel(ctx)
	log := e.log.With(logger.Fields{"query_id": query.ID.String(), "platform": slug})

	e.updateStatus(writeCtx, log, query.ID, models.QueryStatusSent, nil, nil)

	start := time.Now()
	metrics.QueriesInFlight.WithLabelValues(slug).Inc()
	callCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	resp, err := adapter.Query(callCtx, &models.PlatformRequest{
		Prompt:            req.PromptText,
		RequestsPerMinute: platform.RequestsPerMinute,
	})
	cancel()
	metrics.QueriesInFlight.WithLabelValues(slug).Dec()
	metrics.QueryDuration.WithLabelValues(slug).Observe(time.Since(start).Seconds())

	if err != nil {
		message := err.Error()
		log.WithError(err).Warn("adapter call failed", logger.Fields{"error_code": common.CodeOf(err)})
		e.updateStatus(writeCtx, log, query.ID, models.QueryStatusFailed, &message, nil)
		return fail(common.CodeOf(err), message)
	}

	cost := e.costs.CalculateCost(platform, resp.Usage)

	stored := &models.Response{
		QueryID:          query.ID,
		ResponseText:     resp.Content,
		Metadata:         resp.Metadata,
		ProcessingTimeMs: resp.ProcessingTimeMs,
		ConfidenceScore:  resp.Metadata.ConfidenceScore,
	}
	if err := e.repos.ResponseRepo.Create(writeCtx, stored); err != nil {
		message := "Failed to store response"
		log.WithError(err).Error(message, nil)
		e.updateStatus(writeCtx, log, query.ID, models.QueryStatusFailed, &message, nil)
		return fail(common.CodeStorageError, message)
	}

	e.updateStatus(writeCtx, log, query.ID, models.QueryStatusCompleted, nil, &cost)

	result.Status = models.QueryStatusCompleted
	result.Response = resp
	result.Stored = stored
	result.ResponseID = &stored.ID
	result.Cost = &cost

	metrics.QueriesTotal.WithLabelValues(slug, string(models.QueryStatusCompleted)).Inc()
	metrics.QueryCost.WithLabelValues(slug).Add(cost)
	log.Info("query completed", logger.Fields{"cost": cost, "processing_ms": resp.ProcessingTimeMs})
	return result
}

// updateStatus logs rather than fails: the dispatch outcome is already decided.
func (e *queryEngine) updateStatus(ctx context.Context, log logger.Logger, id uuid.UUID, status models.QueryStatus, errMsg *string, cost *float64) {
	if err := e.repos.QueryRepo.UpdateStatus(ctx, id, status, errMsg, cost); err != nil {
		log.WithError(err).Warn("Warning: failed to update query status", logger.Fields{"status": string(status)})
	}
}

// ExecuteBatch resolves the template once and dispatches it to every platform
// concurrently. Results keep the order of req.Platforms; platforms that have not
// answered by the gather deadline are reported as TIMEOUT.
func (e *queryEngine) ExecuteBatch(ctx context.Context, req BatchRequest) ([]*models.QueryResult, error) {
	if len(req.Platforms) == 0 {
		return nil, fmt.Errorf("at least one platform is required")
	}

	ctx, span := e.tracer.Start(ctx, "query.batch", trace.WithAttributes(
		attribute.String("template_id", req.TemplateID.String()),
		attribute.Int("platforms", len(req.Platforms)),
	))
	defer span.End()

	tmpl, err := e.repos.TemplateRepo.GetActiveByID(ctx, req.TemplateID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load template %s: %w", req.TemplateID, err)
	}

	queryType := req.QueryType
	if queryType == "" && tmpl != nil {
		queryType = tmpl.Category
	}
	if queryType == "" {
		queryType = "general"
	}

	if tmpl == nil {
		return e.rejectBatch(req, queryType, "", fmt.Sprintf("Template not found: %s", req.TemplateID)), nil
	}

	if missing := e.templates.Validate(tmpl.Template, req.Variables); len(missing) > 0 {
		return e.rejectBatch(req, queryType, tmpl.Template, "Missing required variables: "+strings.Join(missing, ", ")), nil
	}

	promptText := e.templates.Resolve(tmpl.Template, req.Variables)
	templateID := tmpl.ID

	deadline := e.queryTimeout + e.batchGrace
	timeoutMessage := fmt.Sprintf("Query did not finish within %s", deadline)

	var (
		mu       sync.Mutex
		results  = make([]*models.QueryResult, len(req.Platforms))
		queryIDs = make([]uuid.UUID, len(req.Platforms))
		g        errgroup.Group
	)
	for i, slug := range req.Platforms {
		g.Go(func() error {
			r := e.executeQuery(ctx, QueryRequest{
				CompanyID:  req.CompanyID,
				Platform:   slug,
				PromptText: promptText,
				QueryType:  queryType,
				TemplateID: &templateID,
			}, func(id uuid.UUID) {
				mu.Lock()
				queryIDs[i] = id
				mu.Unlock()
			})

			mu.Lock()
			late := results[i] != nil
			if !late {
				results[i] = r
			}
			mu.Unlock()

			// Already reported as TIMEOUT; keep the stored row in agreement.
			if late && r.ID != uuid.Nil {
				e.markTimedOut(ctx, r.ID, timeoutMessage)
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		e.log.Warn("Warning: batch gather deadline reached", logger.Fields{"deadline": deadline.String()})
	case <-ctx.Done():
		e.log.Warn("Warning: batch caller went away before all platforms answered", nil)
	}

	mu.Lock()
	out := make([]*models.QueryResult, len(results))
	expired := []uuid.UUID{}
	for i, r := range results {
		if r == nil {
			r = &models.QueryResult{
				ID:           queryIDs[i],
				CompanyID:    req.CompanyID,
				Platform:     providers.CanonicalSlug(req.Platforms[i]),
				TemplateID:   &templateID,
				QueryText:    promptText,
				QueryType:    queryType,
				Status:       models.QueryStatusFailed,
				ErrorCode:    common.CodeTimeout,
				ErrorMessage: timeoutMessage,
				CreatedAt:    time.Now().UTC(),
			}
			results[i] = r
			if r.ID != uuid.Nil {
				expired = append(expired, r.ID)
			}
			metrics.QueryFailures.WithLabelValues(r.Platform, common.CodeTimeout).Inc()
		}
		out[i] = r
	}
	mu.Unlock()

	for _, id := range expired {
		e.markTimedOut(ctx, id, timeoutMessage)
	}
	return out, nil
}

func (e *queryEngine) markTimedOut(ctx context.Context, id uuid.UUID, message string) {
	log := e.log.With(logger.Fields{"query_id": id.String()})
	e.updateStatus(context.WithoutCancel(ctx), log, id, models.QueryStatusFailed, &message, nil)
}

// rejectBatch reports the same validation failure for every requested platform without dispatching.
func (e *queryEngine) rejectBatch(req BatchRequest, queryType, queryText, message string) []*models.QueryResult {
	e.log.Warn("batch rejected", logger.Fields{"template_id": req.TemplateID.String(), "reason": message})

	var templateID *uuid.UUID
	if req.TemplateID != uuid.Nil {
		id := req.TemplateID
		templateID = &id
	}
	now := time.Now().UTC()
	results := make([]*models.QueryResult, len(req.Platforms))
	for i, slug := range req.Platforms {
		results[i] = &models.QueryResult{
			CompanyID:    req.CompanyID,
			Platform:     providers.CanonicalSlug(slug),
			TemplateID:   templateID,
			QueryText:    queryText,
			QueryType:    queryType,
			Status:       models.QueryStatusFailed,
			ErrorCode:    common.CodeValidationError,
			ErrorMessage: message,
			CreatedAt:    now,
		}
	}
	return results
}

func (e *queryEngine) GetQueryHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.QueryHistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := e.repos.QueryRepo.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}
	if entries == nil {
		entries = []*models.QueryHistoryEntry{}
	}
	return entries, nil
}

func (e *queryEngine) ListPlatforms(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	platforms, err := e.repos.PlatformRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	if platforms == nil {
		platforms = []*models.PlatformDescriptor{}
	}
	return platforms, nil
}
