// services/response_processor.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/metrics"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/google/uuid"
)

type responseProcessor struct {
	repos     *RepositoryManager
	detector  MentionDetector
	extractor CitationExtractor
	index     CitationIndex
	log       logger.Logger
}

// NewResponseProcessor wires the mining pipeline. index may be nil when search is disabled.
func NewResponseProcessor(repos *RepositoryManager, detector MentionDetector, extractor CitationExtractor, index CitationIndex, log logger.Logger) ResponseProcessor {
	return &responseProcessor{
		repos:     repos,
		detector:  detector,
		extractor: extractor,
		index:     index,
		log:       logger.Component(log, "ResponseProcessor"),
	}
}

// ProcessResponse makes sure the response row exists, then detects and stores
// mentions and citations. Failures after the response row is in place are
// collected in Errors rather than returned.
func (p *responseProcessor) ProcessResponse(ctx context.Context, companyID uuid.UUID, response *models.Response) (*ProcessingResult, error) {
	start := time.Now()
	if response == nil {
		return nil, common.NewPlatformError("", common.CodeValidationError, "response is required", nil)
	}

	if response.ID == uuid.Nil {
		if err := p.repos.ResponseRepo.Create(ctx, response); err != nil {
			return nil, common.NewPlatformError("", common.CodeStorageError, "Failed to store response", err)
		}
	}

	result := &ProcessingResult{
		ResponseID:    response.ID,
		BrandMentions: []*models.BrandMention{},
		Citations:     []*models.Citation{},
		Errors:        []string{},
	}
	log := p.log.With(logger.Fields{"response_id": response.ID.String(), "company_id": companyID.String()})

	if err := p.processMentions(ctx, companyID, response, result); err != nil {
		log.WithError(err).Warn("Warning: brand mention stage failed", nil)
		result.Errors = append(result.Errors, err.Error())
	}

	if err := p.processCitations(ctx, companyID, response, result); err != nil {
		log.WithError(err).Warn("Warning: citation stage failed", nil)
		result.Errors = append(result.Errors, err.Error())
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Info("response processed", logger.Fields{
		"mentions":  len(result.BrandMentions),
		"citations": len(result.Citations),
		"errors":    len(result.Errors),
	})
	return result, nil
}

func (p *responseProcessor) processMentions(ctx context.Context, companyID uuid.UUID, response *models.Response, result *ProcessingResult) (err error) {
	defer recoverStage("Brand mention detection", &err)

	keywords, err := p.repos.KeywordRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("Brand mention detection failed: %w", err)
	}

	mentions := p.detector.DetectMentions(response.ResponseText, keywords)
	for _, m := range mentions {
		m.ResponseID = response.ID
		m.CompanyID = companyID
		metrics.MentionsDetected.WithLabelValues(string(m.Sentiment)).Inc()
	}
	result.BrandMentions = mentions

	if err := p.repos.MentionRepo.BulkCreate(ctx, mentions); err != nil {
		return fmt.Errorf("Failed to store brand mentions: %w", err)
	}
	return nil
}

func (p *responseProcessor) processCitations(ctx context.Context, companyID uuid.UUID, response *models.Response, result *ProcessingResult) (err error) {
	defer recoverStage("Citation extraction", &err)

	citations := p.extractor.ExtractCitations(response.ResponseText, response.Metadata)
	for _, c := range citations {
		c.ResponseID = response.ID
		metrics.CitationsExtracted.WithLabelValues(string(c.CitationType)).Inc()
	}
	result.Citations = citations

	if err := p.repos.CitationRepo.BulkCreate(ctx, citations); err != nil {
		return fmt.Errorf("Failed to store citations: %w", err)
	}

	if p.index != nil {
		if err := p.index.IndexCitations(ctx, companyID, citations); err != nil {
			return fmt.Errorf("Failed to index citations: %w", err)
		}
	}
	return nil
}

func recoverStage(stage string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s failed: %v", stage, r)
	}
}

func (p *responseProcessor) ProcessStoredResponse(ctx context.Context, companyID, responseID uuid.UUID) (*ProcessingResult, error) {
	response, err := p.repos.ResponseRepo.GetByID(ctx, responseID)
	if err != nil {
		return nil, common.NewPlatformError("", common.CodeStorageError, "Failed to load response", err)
	}
	if response == nil {
		return nil, nil
	}
	return p.ProcessResponse(ctx, companyID, response)
}

func (p *responseProcessor) GetProcessedResponse(ctx context.Context, responseID uuid.UUID) (*models.ProcessedResponse, error) {
	response, err := p.repos.ResponseRepo.GetByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load response: %w", err)
	}
	if response == nil {
		return nil, nil
	}

	mentions, err := p.repos.MentionRepo.ListByResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand mentions: %w", err)
	}
	citations, err := p.repos.CitationRepo.ListByResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load citations: %w", err)
	}

	return &models.ProcessedResponse{
		Response:      response,
		BrandMentions: mentions,
		Citations:     citations,
	}, nil
}
