// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/services"
	"github.com/AI-Template-SDK/senso-query-engine/workflows"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

// EventSender publishes workflow events; inngestgo.Client satisfies it.
type EventSender interface {
	Send(ctx context.Context, evt any) (string, error)
}

type Server struct {
	engine    services.QueryEngine
	processor services.ResponseProcessor
	index     services.CitationIndex
	events    EventSender
	validator *Validator
	log       logger.Logger
}

// Options carries the optional collaborators of the API.
type Options struct {
	Index  services.CitationIndex
	Events EventSender
}

func NewServer(engine services.QueryEngine, processor services.ResponseProcessor, opts Options, log logger.Logger) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		engine:    engine,
		processor: processor,
		index:     opts.Index,
		events:    opts.Events,
		validator: validator,
		log:       logger.Component(log, "API"),
	}, nil
}

// Register mounts every route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("PUT /api/query", s.handleBatch)
	mux.HandleFunc("POST /api/query/batch/async", s.handleBatchAsync)
	mux.HandleFunc("GET /api/queries", s.handleHistory)
	mux.HandleFunc("GET /api/responses/{id}", s.handleProcessedResponse)
	mux.HandleFunc("GET /api/platforms", s.handlePlatforms)
	mux.HandleFunc("GET /api/citations/search", s.handleCitationSearch)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "Not found", r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"service": "senso-query-engine", "status": "running"})
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.validator.ValidateQuery(body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	var req QueryBody
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.prompt()) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: companyId, platform, promptText", "promptText is required")
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "companyId must be a UUID")
		return
	}

	result := s.engine.ExecuteQuery(r.Context(), services.QueryRequest{
		CompanyID:  companyID,
		Platform:   req.Platform,
		PromptText: req.prompt(),
		QueryType:  req.QueryType,
	})

	var processing *services.ProcessingResult
	if result.Status == models.QueryStatusCompleted && result.Stored != nil {
		pr, err := s.processor.ProcessResponse(r.Context(), companyID, result.Stored)
		if err != nil {
			s.log.WithError(err).Warn("Warning: response processing failed", logger.Fields{"query_id": result.ID.String()})
		} else {
			processing = pr
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":      result,
		"processing": processing,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseBatch(w, r)
	if !ok {
		return
	}

	results, err := s.engine.ExecuteBatch(r.Context(), req)
	if err != nil {
		s.log.WithError(err).Error("batch query failed", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"queries":    results,
		"processing": s.processAll(r.Context(), req.CompanyID, results),
	})
}

// processAll mines every completed result concurrently and keeps input order.
func (s *Server) processAll(ctx context.Context, companyID uuid.UUID, results []*models.QueryResult) []*services.ProcessingResult {
	slots := make([]*services.ProcessingResult, len(results))
	var g errgroup.Group
	for i, r := range results {
		if r == nil || r.Status != models.QueryStatusCompleted || r.Stored == nil {
			continue
		}
		g.Go(func() error {
			pr, err := s.processor.ProcessResponse(ctx, companyID, r.Stored)
			if err != nil {
				s.log.WithError(err).Warn("Warning: response processing failed", logger.Fields{"query_id": r.ID.String()})
				return nil
			}
			slots[i] = pr
			return nil
		})
	}
	_ = g.Wait()

	processing := []*services.ProcessingResult{}
	for _, pr := range slots {
		if pr != nil {
			processing = append(processing, pr)
		}
	}
	return processing
}

func (s *Server) handleBatchAsync(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "Async dispatch unavailable", "no workflow client configured")
		return
	}
	req, ok := s.parseBatch(w, r)
	if !ok {
		return
	}

	id, err := s.events.Send(r.Context(), workflows.NewBatchEvent(req))
	if err != nil {
		s.log.WithError(err).Error("failed to send batch event", nil)
		writeError(w, http.StatusInternalServerError, "Failed to send event", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":    "queued",
		"event_ids": []string{id},
	})
}

func (s *Server) parseBatch(w http.ResponseWriter, r *http.Request) (services.BatchRequest, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return services.BatchRequest{}, false
	}
	if err := s.validator.ValidateBatch(body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return services.BatchRequest{}, false
	}

	var req BatchBody
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return services.BatchRequest{}, false
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "companyId must be a UUID")
		return services.BatchRequest{}, false
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "templateId must be a UUID")
		return services.BatchRequest{}, false
	}

	return services.BatchRequest{
		CompanyID:  companyID,
		TemplateID: templateID,
		Platforms:  req.Platforms,
		Variables:  services.TemplateVariables(req.Variables),
		QueryType:  req.QueryType,
	}, true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(r.URL.Query().Get("companyId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "companyId must be a UUID")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid request", "limit must be a non-negative integer")
			return
		}
	}

	history, err := s.engine.GetQueryHistory(r.Context(), companyID, limit)
	if err != nil {
		s.log.WithError(err).Error("failed to load query history", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queries": history})
}

func (s *Server) handleProcessedResponse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "response id must be a UUID")
		return
	}

	processed, err := s.processor.GetProcessedResponse(r.Context(), id)
	if err != nil {
		s.log.WithError(err).Error("failed to load processed response", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	if processed == nil {
		writeError(w, http.StatusNotFound, "Not found", fmt.Sprintf("response %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := s.engine.ListPlatforms(r.Context())
	if err != nil {
		s.log.WithError(err).Error("failed to list platforms", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
}

func (s *Server) handleCitationSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, "Citation search unavailable", "search index is not configured")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	citations, err := s.index.Search(r.Context(), q, limit)
	if err != nil {
		s.log.WithError(err).Error("citation search failed", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"citations": citations})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large", err.Error())
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, map[string]string{"error": errMsg, "message": message})
}
