// internal/app/app.go
package app

import (
	"context"
	"fmt"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/database"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers"
	"github.com/AI-Template-SDK/senso-query-engine/internal/ratelimit"
	"github.com/AI-Template-SDK/senso-query-engine/internal/repositories/memory"
	"github.com/AI-Template-SDK/senso-query-engine/services"
)

// App holds the wired services shared by the HTTP server and the CLI
type App struct {
	Config    *config.Config
	Repos     *services.RepositoryManager
	Registry  *providers.Registry
	Engine    services.QueryEngine
	Processor services.ResponseProcessor
	Index     services.CitationIndex
	Templates services.TemplateService
	InMemory  bool

	closers []func() error
}

type Options struct {
	// InMemory skips Postgres even when a database is configured.
	InMemory bool
}

// Build connects storage, the limiter and the search index, then wires the services.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	log = logger.Component(log, "App")
	a := &App{Config: cfg, Templates: services.NewTemplateService()}

	if opts.InMemory || !cfg.Database.Enabled() {
		log.Warn("no database configured, using in-memory store", nil)
		a.Repos = services.NewMemoryRepositoryManager(memory.NewStore())
		a.InMemory = true
	} else {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		a.Repos = services.NewRepositoryManager(db)
		log.Info("connected to database", logger.Fields{"host": cfg.Database.Host, "name": cfg.Database.Name})
	}

	if err := a.Repos.PlatformRepo.EnsureDefaults(ctx, PlatformsFromConfig(cfg)); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed platforms: %w", err)
	}

	a.Registry = providers.NewRegistry(cfg, a.limiter(ctx, log), log)

	if cfg.Typesense.Enabled {
		index := services.NewCitationIndex(services.NewTypesenseClient(cfg.Typesense), log)
		if err := index.EnsureCollection(ctx); err != nil {
			log.WithError(err).Warn("Warning: citation index unavailable, continuing without search", nil)
		} else {
			a.Index = index
		}
	}

	a.Engine = services.NewQueryEngine(cfg, a.Repos, a.Registry, a.Templates, services.NewCostService(), log)
	a.Processor = services.NewResponseProcessor(a.Repos, services.NewMentionDetector(), services.NewCitationExtractor(cfg.Citations), a.Index, log)
	return a, nil
}

func (a *App) limiter(ctx context.Context, log logger.Logger) ratelimit.Limiter {
	if a.Config.RateLimitBackend != "redis" {
		return ratelimit.NewWindowLimiter()
	}
	rdb, err := ratelimit.NewRedisClient(ctx, a.Config.Redis)
	if err != nil {
		log.WithError(err).Warn("Warning: redis unavailable, falling back to in-process rate limiting", nil)
		return ratelimit.NewWindowLimiter()
	}
	a.closers = append(a.closers, rdb.Close)
	return ratelimit.NewRedisLimiter(rdb, log)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// PlatformsFromConfig returns the default platforms with configured budgets and prices applied.
func PlatformsFromConfig(cfg *config.Config) []*models.PlatformDescriptor {
	platforms := services.DefaultPlatforms()
	if cfg == nil {
		return platforms
	}
	for _, p := range platforms {
		pc, ok := cfg.Platform(p.Slug)
		if !ok {
			continue
		}
		if pc.RequestsPerMinute > 0 {
			p.RequestsPerMinute = pc.RequestsPerMinute
		}
		if pc.CostPerQuery > 0 {
			p.CostPerQuery = pc.CostPerQuery
		}
	}
	return platforms
}
