// internal/providers/factory.go
package providers

import (
	"sort"
	"strings"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/gemini"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/openai"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/perplexity"
	"github.com/AI-Template-SDK/senso-query-engine/internal/ratelimit"
)

var aliases = map[string]string{
	"gpt-4":  openai.Slug,
	"claude": claude.Slug,
	"gemini": gemini.Slug,
}

// CanonicalSlug lowercases a platform name and resolves known aliases.
func CanonicalSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[slug]; ok {
		return canonical
	}
	return slug
}

// Registry maps canonical platform slugs to adapters
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds one adapter per supported backend. Adapters for backends
// without a key are still registered and fail with NOT_CONFIGURED on use.
func NewRegistry(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Registry {
	settings := func(slug string) common.Settings {
		return common.SettingsFor(cfg, slug, limiter, log)
	}

	r := NewStaticRegistry(
		openai.NewProvider(settings(openai.Slug)),
		claude.NewProvider(settings(claude.Slug)),
		perplexity.NewProvider(settings(perplexity.Slug)),
		gemini.NewProvider(settings(gemini.Slug)),
	)

	if cfg == nil {
		return r
	}
	log = logger.Component(log, "ProviderRegistry")
	for _, slug := range r.Slugs() {
		if pc, ok := cfg.Platform(slug); ok && pc.APIKey == "" {
			log.Warn("platform API key not configured", logger.Fields{"platform": slug})
		}
	}
	return r
}

// NewStaticRegistry registers the given adapters under their provider names.
func NewStaticRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[CanonicalSlug(a.GetProviderName())] = a
	}
	return r
}

// Get returns the adapter for a slug or alias.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[CanonicalSlug(name)]
	return a, ok
}

func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.adapters))
	for slug := range r.adapters {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
