// workflows/batch_processor.go
package workflows

import (
	"context"
	"fmt"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/services"
	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
)

// BatchRequestedEvent triggers an asynchronous templated batch
const BatchRequestedEvent = "query/batch.requested"

type BatchRequestedData struct {
	CompanyID  string                 `json:"company_id"`
	TemplateID string                 `json:"template_id"`
	Platforms  []string               `json:"platforms"`
	Variables  map[string]interface{} `json:"variables"`
	QueryType  string                 `json:"query_type,omitempty"`
}

// NewBatchEvent builds the event the batch workflow listens for.
func NewBatchEvent(req services.BatchRequest) inngestgo.Event {
	return inngestgo.Event{
		Name: BatchRequestedEvent,
		Data: map[string]interface{}{
			"company_id":  req.CompanyID.String(),
			"template_id": req.TemplateID.String(),
			"platforms":   req.Platforms,
			"variables":   map[string]interface{}(req.Variables),
			"query_type":  req.QueryType,
		},
	}
}

func (d BatchRequestedData) toRequest() (services.BatchRequest, error) {
	companyID, err := uuid.Parse(d.CompanyID)
	if err != nil {
		return services.BatchRequest{}, fmt.Errorf("invalid company_id %q: %w", d.CompanyID, err)
	}
	templateID, err := uuid.Parse(d.TemplateID)
	if err != nil {
		return services.BatchRequest{}, fmt.Errorf("invalid template_id %q: %w", d.TemplateID, err)
	}
	return services.BatchRequest{
		CompanyID:  companyID,
		TemplateID: templateID,
		Platforms:  d.Platforms,
		Variables:  services.TemplateVariables(d.Variables),
		QueryType:  d.QueryType,
	}, nil
}

type BatchProcessor struct {
	engine    services.QueryEngine
	processor services.ResponseProcessor
	client    inngestgo.Client
	alerts    *SlackAlerter
	log       logger.Logger
}

func NewBatchProcessor(engine services.QueryEngine, processor services.ResponseProcessor, log logger.Logger) *BatchProcessor {
	return &BatchProcessor{
		engine:    engine,
		processor: processor,
		log:       logger.Component(log, "BatchProcessor"),
	}
}

func (p *BatchProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *BatchProcessor) SetAlerter(alerts *SlackAlerter) {
	p.alerts = alerts
}

// ProcessBatch registers the function that dispatches a batch and then mines
// every completed response. The dispatch step is retried as a whole.
func (p *BatchProcessor) ProcessBatch() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "query-batch-processor",
			Name:    "Dispatch Templated Query Batch",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(BatchRequestedEvent, nil),
		func(ctx context.Context, input inngestgo.Input[BatchRequestedData]) (any, error) {
			req, err := input.Event.Data.toRequest()
			if err != nil {
				return nil, err
			}
			log := p.log.With(logger.Fields{"company_id": req.CompanyID.String(), "template_id": req.TemplateID.String()})
			log.Info("batch workflow started", logger.Fields{"platforms": req.Platforms})

			// Step 1: dispatch to every platform
			results, err := step.Run(ctx, "execute-batch", func(ctx context.Context) ([]*models.QueryResult, error) {
				return p.engine.ExecuteBatch(ctx, req)
			})
			if err != nil {
				return nil, fmt.Errorf("step 'execute-batch' failed: %w", err)
			}

			// Step 2: mine the completed responses
			processed, err := step.Run(ctx, "process-responses", func(ctx context.Context) ([]*services.ProcessingResult, error) {
				return p.processResults(ctx, req.CompanyID, results), nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 'process-responses' failed: %w", err)
			}

			summary := summarizeBatch(req, results, processed)
			log.Info("batch workflow finished", summary)

			if summary["completed"] == 0 && p.alerts.Enabled() {
				_, err := step.Run(ctx, "report-failure", func(ctx context.Context) (bool, error) {
					if err := p.alerts.ReportBatchFailure(ctx, summary, failureReasons(results)); err != nil {
						log.WithError(err).Warn("Warning: failed to report batch failure", nil)
						return false, nil
					}
					return true, nil
				})
				if err != nil {
					log.WithError(err).Warn("Warning: step 'report-failure' failed", nil)
				}
			}
			return summary, nil
		},
	)
	if err != nil {
		p.log.WithError(err).Error("failed to create batch processor function", nil)
	}
	return fn
}

// processResults mines each completed response, skipping the ones that fail.
func (p *BatchProcessor) processResults(ctx context.Context, companyID uuid.UUID, results []*models.QueryResult) []*services.ProcessingResult {
	processed := []*services.ProcessingResult{}
	for _, r := range results {
		if r == nil || r.Status != models.QueryStatusCompleted || r.ResponseID == nil {
			continue
		}
		pr, err := p.processor.ProcessStoredResponse(ctx, companyID, *r.ResponseID)
		if err != nil {
			p.log.WithError(err).Warn("Warning: failed to process response", logger.Fields{"query_id": r.ID.String()})
			continue
		}
		if pr != nil {
			processed = append(processed, pr)
		}
	}
	return processed
}

// failureReasons lists one "platform: CODE message" line per failed query.
func failureReasons(results []*models.QueryResult) []string {
	reasons := []string{}
	for _, r := range results {
		if r == nil || r.Status == models.QueryStatusCompleted {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s %s", r.Platform, r.ErrorCode, r.ErrorMessage))
	}
	return reasons
}

func summarizeBatch(req services.BatchRequest, results []*models.QueryResult, processed []*services.ProcessingResult) map[string]interface{} {
	completed, failed, mentions, citations := 0, 0, 0, 0
	for _, r := range results {
		if r != nil && r.Status == models.QueryStatusCompleted {
			completed++
		} else {
			failed++
		}
	}
	for _, pr := range processed {
		mentions += len(pr.BrandMentions)
		citations += len(pr.Citations)
	}
	return map[string]interface{}{
		"company_id":  req.CompanyID.String(),
		"template_id": req.TemplateID.String(),
		"total":       len(results),
		"completed":   completed,
		"failed":      failed,
		"processed":   len(processed),
		"mentions":    mentions,
		"citations":   citations,
	}
}
