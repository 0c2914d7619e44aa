// internal/database/client.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Client wraps the shared sqlx handle
type Client struct {
	*sqlx.DB
}

// Connect opens and pings a Postgres connection pool.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Client, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{DB: db}, nil
}

// NewClient wraps an existing handle. Tests pass a sqlmock-backed *sqlx.DB.
func NewClient(db *sqlx.DB) *Client {
	return &Client{DB: db}
}

// EnsureSchema creates the tables the query engine writes to.
func (c *Client) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ai_platforms (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		requests_per_minute INTEGER NOT NULL DEFAULT 60,
		cost_per_query NUMERIC(10,4) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS query_templates (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		template TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS company_keywords (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL,
		keyword TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS ai_queries (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL,
		ai_platform_id UUID NOT NULL REFERENCES ai_platforms(id),
		template_id UUID REFERENCES query_templates(id),
		query_text TEXT NOT NULL,
		query_type TEXT NOT NULL,
		status TEXT NOT NULL,
		sent_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		error_message TEXT,
		cost NUMERIC(10,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ai_queries_company_created_idx ON ai_queries (company_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS ai_responses (
		id UUID PRIMARY KEY,
		query_id UUID NOT NULL UNIQUE REFERENCES ai_queries(id),
		response_text TEXT NOT NULL,
		response_metadata JSONB NOT NULL DEFAULT '{}',
		processing_time_ms BIGINT NOT NULL DEFAULT 0,
		confidence_score DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS brand_mentions (
		id UUID PRIMARY KEY,
		response_id UUID NOT NULL REFERENCES ai_responses(id) ON DELETE CASCADE,
		company_id UUID NOT NULL,
		keyword_id UUID NOT NULL REFERENCES company_keywords(id),
		mention_text TEXT NOT NULL,
		context_before TEXT NOT NULL DEFAULT '',
		context_after TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL,
		sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		position_in_response INTEGER NOT NULL,
		is_primary_mention BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS citations (
		id UUID PRIMARY KEY,
		response_id UUID NOT NULL REFERENCES ai_responses(id) ON DELETE CASCADE,
		url TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		published_date TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		citation_type TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
