// internal/repositories/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/interfaces"
	"github.com/google/uuid"
)

// Store keeps every record in process memory. It backs the CLI when no
// database is configured, and the service tests.
type Store struct {
	mu        sync.RWMutex
	platforms map[uuid.UUID]*models.PlatformDescriptor
	templates map[uuid.UUID]*models.QueryTemplate
	keywords  map[uuid.UUID]*models.Keyword
	queries   map[uuid.UUID]*models.Query
	responses map[uuid.UUID]*models.Response
	mentions  map[uuid.UUID][]*models.BrandMention
	citations map[uuid.UUID][]*models.Citation

	// Fail* make the matching write return an error, for failure-path tests.
	FailQueryCreate    bool
	FailResponseCreate bool
	FailMentionCreate  bool
	FailCitationCreate bool
}

func NewStore() *Store {
	return &Store{
		platforms: make(map[uuid.UUID]*models.PlatformDescriptor),
		templates: make(map[uuid.UUID]*models.QueryTemplate),
		keywords:  make(map[uuid.UUID]*models.Keyword),
		queries:   make(map[uuid.UUID]*models.Query),
		responses: make(map[uuid.UUID]*models.Response),
		mentions:  make(map[uuid.UUID][]*models.BrandMention),
		citations: make(map[uuid.UUID][]*models.Citation),
	}
}

func (s *Store) Platforms() interfaces.PlatformRepository { return platformRepo{s} }
func (s *Store) Templates() interfaces.TemplateRepository { return templateRepo{s} }
func (s *Store) Keywords() interfaces.KeywordRepository   { return keywordRepo{s} }
func (s *Store) Queries() interfaces.QueryRepository      { return queryRepo{s} }
func (s *Store) Responses() interfaces.ResponseRepository { return responseRepo{s} }
func (s *Store) Mentions() interfaces.MentionRepository   { return mentionRepo{s} }
func (s *Store) Citations() interfaces.CitationRepository { return citationRepo{s} }

// Query returns a copy of a stored query.
func (s *Store) Query(id uuid.UUID) (models.Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	if !ok {
		return models.Query{}, false
	}
	return *q, true
}

// ResponseCount reports how many responses are stored.
func (s *Store) ResponseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses)
}

// QueryCount reports how many queries are stored.
func (s *Store) QueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queries)
}

var errInjected = fmt.Errorf("injected storage failure")

type platformRepo struct{ s *Store }

func (r platformRepo) ListActive(ctx context.Context) ([]*models.PlatformDescriptor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.PlatformDescriptor
	for _, p := range r.s.platforms {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r platformRepo) GetActiveBySlug(ctx context.Context, slug string) (*models.PlatformDescriptor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.platforms {
		if p.Slug == slug && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r platformRepo) EnsureDefaults(ctx context.Context, platforms []*models.PlatformDescriptor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing := make(map[string]bool, len(r.s.platforms))
	for _, p := range r.s.platforms {
		existing[p.Slug] = true
	}
	for _, p := range platforms {
		if existing[p.Slug] {
			continue
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		cp := *p
		r.s.platforms[cp.ID] = &cp
		existing[p.Slug] = true
	}
	return nil
}

type templateRepo struct{ s *Store }

func (r templateRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok || !t.IsActive {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r templateRepo) Create(ctx context.Context, t *models.QueryTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	r.s.templates[t.ID] = &cp
	return nil
}

type keywordRepo struct{ s *Store }

func (r keywordRepo) ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Keyword, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Keyword
	for _, k := range r.s.keywords {
		if k.CompanyID == companyID && k.IsActive {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, nil
}

func (r keywordRepo) Create(ctx context.Context, k *models.Keyword) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	cp := *k
	r.s.keywords[k.ID] = &cp
	return nil
}

type queryRepo struct{ s *Store }

func (r queryRepo) Create(ctx context.Context, q *models.Query) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailQueryCreate {
		return fmt.Errorf("failed to create query: %w", errInjected)
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	cp := *q
	r.s.queries[q.ID] = &cp
	return nil
}

func (r queryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.QueryStatus, errMsg *string, cost *float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.queries[id]
	if !ok {
		return fmt.Errorf("query %s not found", id)
	}
	now := time.Now().UTC()
	q.Status = status
	if errMsg != nil {
		msg := *errMsg
		q.ErrorMessage = &msg
	}
	if cost != nil {
		c := *cost
		q.Cost = &c
	}
	switch status {
	case models.QueryStatusSent:
		q.SentAt = &now
	case models.QueryStatusCompleted, models.QueryStatusFailed:
		q.CompletedAt = &now
	}
	q.UpdatedAt = now
	return nil
}

func (r queryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Query, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.queries[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r queryRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, limit int) ([]*models.QueryHistoryEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	responsesByQuery := make(map[uuid.UUID]*models.Response, len(r.s.responses))
	for _, resp := range r.s.responses {
		responsesByQuery[resp.QueryID] = resp
	}

	var out []*models.QueryHistoryEntry
	for _, q := range r.s.queries {
		if q.CompanyID != companyID {
			continue
		}
		entry := &models.QueryHistoryEntry{Query: *q}
		if p, ok := r.s.platforms[q.PlatformID]; ok {
			entry.PlatformName = p.Name
			entry.PlatformSlug = p.Slug
		}
		if q.TemplateID != nil {
			if t, ok := r.s.templates[*q.TemplateID]; ok {
				name := t.Name
				entry.TemplateName = &name
			}
		}
		if resp, ok := responsesByQuery[q.ID]; ok {
			text := resp.ResponseText
			if len(text) > 500 {
				text = strings.ToValidUTF8(text[:500], "")
			}
			ms := resp.ProcessingTimeMs
			entry.ResponseText = &text
			entry.ProcessingTimeMs = &ms
			entry.ConfidenceScore = resp.ConfidenceScore
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type responseRepo struct{ s *Store }

func (r responseRepo) Create(ctx context.Context, resp *models.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailResponseCreate {
		return fmt.Errorf("failed to create response: %w", errInjected)
	}
	for _, existing := range r.s.responses {
		if existing.QueryID == resp.QueryID {
			return fmt.Errorf("response for query %s already exists", resp.QueryID)
		}
	}
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	resp.CreatedAt = time.Now().UTC()
	cp := *resp
	r.s.responses[resp.ID] = &cp
	return nil
}

func (r responseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	resp, ok := r.s.responses[id]
	if !ok {
		return nil, nil
	}
	cp := *resp
	return &cp, nil
}

type mentionRepo struct{ s *Store }

func (r mentionRepo) BulkCreate(ctx context.Context, mentions []*models.BrandMention) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(mentions) == 0 {
		return nil
	}
	if r.s.FailMentionCreate {
		return fmt.Errorf("failed to insert mentions: %w", errInjected)
	}
	now := time.Now().UTC()
	for _, m := range mentions {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = now
		cp := *m
		r.s.mentions[m.ResponseID] = append(r.s.mentions[m.ResponseID], &cp)
	}
	return nil
}

func (r mentionRepo) ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.BrandMention, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.BrandMention, 0, len(r.s.mentions[responseID]))
	for _, m := range r.s.mentions[responseID] {
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PositionInResponse < out[j].PositionInResponse })
	return out, nil
}

type citationRepo struct{ s *Store }

func (r citationRepo) BulkCreate(ctx context.Context, citations []*models.Citation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(citations) == 0 {
		return nil
	}
	if r.s.FailCitationCreate {
		return fmt.Errorf("failed to insert citations: %w", errInjected)
	}
	now := time.Now().UTC()
	for _, c := range citations {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = now
		cp := *c
		r.s.citations[c.ResponseID] = append(r.s.citations[c.ResponseID], &cp)
	}
	return nil
}

func (r citationRepo) ListByResponse(ctx context.Context, responseID uuid.UUID) ([]*models.Citation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Citation, 0, len(r.s.citations[responseID]))
	for _, c := range r.s.citations[responseID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	return out, nil
}
