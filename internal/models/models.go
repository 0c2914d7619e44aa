// internal/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueryStatus is the lifecycle state of a single dispatch attempt
type QueryStatus string

const (
	QueryStatusPending   QueryStatus = "pending"
	QueryStatusSent      QueryStatus = "sent"
	QueryStatusCompleted QueryStatus = "completed"
	QueryStatusFailed    QueryStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s QueryStatus) IsTerminal() bool {
	return s == QueryStatusCompleted || s == QueryStatusFailed
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type CitationType string

const (
	CitationTypePrimarySource CitationType = "primary_source"
	CitationTypeNewsArticle   CitationType = "news_article"
	CitationTypeResearchPaper CitationType = "research_paper"
	CitationTypeReview        CitationType = "review"
	CitationTypeSocialMedia   CitationType = "social_media"
)

// QueryTemplate is a named prompt skeleton with {variable} placeholders
type QueryTemplate struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Template    string    `json:"template" db:"template"`
	Category    string    `json:"category" db:"category"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PlatformDescriptor identifies one AI backend and its budget/pricing
type PlatformDescriptor struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Slug              string    `json:"slug" db:"slug"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	RequestsPerMinute int       `json:"requests_per_minute" db:"requests_per_minute"`
	CostPerQuery      float64   `json:"cost_per_query" db:"cost_per_query"`
}

// Keyword is a tracked brand term owned by a company
type Keyword struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	Keyword   string    `json:"keyword" db:"keyword"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

// Query is one dispatch attempt against one platform
type Query struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	CompanyID    uuid.UUID   `json:"company_id" db:"company_id"`
	PlatformID   uuid.UUID   `json:"ai_platform_id" db:"ai_platform_id"`
	TemplateID   *uuid.UUID  `json:"template_id,omitempty" db:"template_id"`
	QueryText    string      `json:"query_text" db:"query_text"`
	QueryType    string      `json:"query_type" db:"query_type"`
	Status       QueryStatus `json:"status" db:"status"`
	SentAt       *time.Time  `json:"sent_at,omitempty" db:"sent_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
	Cost         *float64    `json:"cost,omitempty" db:"cost"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// RawCitation is a citation hint supplied by a backend alongside its answer
type RawCitation struct {
	URL            string   `json:"url,omitempty"`
	Title          string   `json:"title,omitempty"`
	Author         string   `json:"author,omitempty"`
	PublishedDate  string   `json:"published_date,omitempty"`
	Excerpt        string   `json:"excerpt,omitempty"`
	Snippet        string   `json:"snippet,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// ResponseMetadata is the backend-specific side channel of a reply
type ResponseMetadata struct {
	Citations       []RawCitation `json:"citations,omitempty"`
	ExternalID      string        `json:"id,omitempty"`
	Created         int64         `json:"created,omitempty"`
	FinishReason    string        `json:"finish_reason,omitempty"`
	ConfidenceScore *float64      `json:"confidence_score,omitempty"`
}

// Value stores metadata as JSONB.
func (m ResponseMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan reads metadata from a JSONB column.
func (m *ResponseMetadata) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = ResponseMetadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	if len(data) == 0 {
		*m = ResponseMetadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// TokenUsage reports backend token accounting; any field may be unknown
type TokenUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Total returns the total token count, deriving it from prompt+completion when needed.
func (u *TokenUsage) Total() (int, bool) {
	if u == nil {
		return 0, false
	}
	if u.TotalTokens != nil && *u.TotalTokens > 0 {
		return *u.TotalTokens, true
	}
	if u.PromptTokens == nil && u.CompletionTokens == nil {
		return 0, false
	}
	total := 0
	if u.PromptTokens != nil {
		total += *u.PromptTokens
	}
	if u.CompletionTokens != nil {
		total += *u.CompletionTokens
	}
	return total, total > 0
}

// PlatformRequest is the input of a single adapter call
type PlatformRequest struct {
	Prompt            string
	ModelHint         string
	RequestsPerMinute int
}

// NormalizedResponse is the backend-independent shape of an adapter reply
type NormalizedResponse struct {
	Platform         string           `json:"platform"`
	Model            string           `json:"model"`
	Content          string           `json:"content"`
	Usage            *TokenUsage      `json:"usage,omitempty"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// Response is the stored reply for a completed Query
type Response struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	QueryID          uuid.UUID        `json:"query_id" db:"query_id"`
	ResponseText     string           `json:"response_text" db:"response_text"`
	Metadata         ResponseMetadata `json:"response_metadata" db:"response_metadata"`
	ProcessingTimeMs int64            `json:"processing_time_ms" db:"processing_time_ms"`
	ConfidenceScore  *float64         `json:"confidence_score,omitempty" db:"confidence_score"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

type BrandMention struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ResponseID         uuid.UUID `json:"response_id" db:"response_id"`
	CompanyID          uuid.UUID `json:"company_id" db:"company_id"`
	KeywordID          uuid.UUID `json:"keyword_id" db:"keyword_id"`
	MentionText        string    `json:"mention_text" db:"mention_text"`
	ContextBefore      string    `json:"context_before" db:"context_before"`
	ContextAfter       string    `json:"context_after" db:"context_after"`
	Sentiment          Sentiment `json:"sentiment" db:"sentiment"`
	SentimentScore     float64   `json:"sentiment_score" db:"sentiment_score"`
	PositionInResponse int       `json:"position_in_response" db:"position_in_response"`
	IsPrimaryMention   bool      `json:"is_primary_mention" db:"is_primary_mention"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type Citation struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	ResponseID     uuid.UUID    `json:"response_id" db:"response_id"`
	URL            string       `json:"url" db:"url"`
	Title          string       `json:"title" db:"title"`
	Domain         string       `json:"domain" db:"domain"`
	Author         string       `json:"author" db:"author"`
	PublishedDate  string       `json:"published_date" db:"published_date"`
	Excerpt        string       `json:"excerpt" db:"excerpt"`
	RelevanceScore float64      `json:"relevance_score" db:"relevance_score"`
	CitationType   CitationType `json:"citation_type" db:"citation_type"`
	IsVerified     bool         `json:"is_verified" db:"is_verified"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// QueryResult is what the orchestrator hands back for one platform
type QueryResult struct {
	ID           uuid.UUID           `json:"id"`
	CompanyID    uuid.UUID           `json:"company_id"`
	PlatformID   uuid.UUID           `json:"ai_platform_id"`
	Platform     string              `json:"platform"`
	TemplateID   *uuid.UUID          `json:"template_id,omitempty"`
	QueryText    string              `json:"query_text"`
	QueryType    string              `json:"query_type"`
	Status       QueryStatus         `json:"status"`
	Response     *NormalizedResponse `json:"response,omitempty"`
	Stored       *Response           `json:"-"`
	ResponseID   *uuid.UUID          `json:"response_id,omitempty"`
	ErrorCode    string              `json:"error_code,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Cost         *float64            `json:"cost,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// QueryHistoryEntry is one row of a company's query history
type QueryHistoryEntry struct {
	Query
	PlatformName     string   `json:"platform_name" db:"platform_name"`
	PlatformSlug     string   `json:"platform_slug" db:"platform_slug"`
	TemplateName     *string  `json:"template_name,omitempty" db:"template_name"`
	ResponseText     *string  `json:"response_text,omitempty" db:"response_text"`
	ProcessingTimeMs *int64   `json:"processing_time_ms,omitempty" db:"processing_time_ms"`
	ConfidenceScore  *float64 `json:"confidence_score,omitempty" db:"confidence_score"`
}

// ProcessedResponse bundles a stored response with everything derived from it
type ProcessedResponse struct {
	Response      *Response       `json:"response"`
	BrandMentions []*BrandMention `json:"brand_mentions"`
	Citations     []*Citation     `json:"citations"`
}
