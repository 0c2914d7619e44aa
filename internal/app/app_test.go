package app

import (
	"context"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.SampleConfig()
	cfg.OpenAI.CostPerQuery = 0.05

	a, err := Build(ctx, cfg, logger.NewTestLogger(t), Options{InMemory: true})
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.InMemory)
	assert.Nil(t, a.Index)
	assert.Equal(t, []string{"anthropic", "google", "openai", "perplexity"}, a.Registry.Slugs())

	platforms, err := a.Engine.ListPlatforms(ctx)
	require.NoError(t, err)
	require.Len(t, platforms, 4)
	for _, p := range platforms {
		if p.Slug == "openai" {
			assert.InDelta(t, 0.05, p.CostPerQuery, 1e-9)
		}
	}
}

func TestBuildWithRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testutil.SampleConfig()
	cfg.RateLimitBackend = "redis"
	cfg.Redis.Addr = mr.Addr()

	a, err := Build(context.Background(), cfg, logger.NewTestLogger(t), Options{InMemory: true})
	require.NoError(t, err)
	require.Len(t, a.closers, 1)
	assert.NoError(t, a.Close())
	assert.Empty(t, a.closers)
}

func TestBuildFallsBackWhenRedisIsDown(t *testing.T) {
	cfg := testutil.SampleConfig()
	cfg.RateLimitBackend = "redis"
	cfg.Redis.Addr = "127.0.0.1:1"

	a, err := Build(context.Background(), cfg, logger.NewTestLogger(t), Options{InMemory: true})
	require.NoError(t, err)
	assert.Empty(t, a.closers)
}

func TestPlatformsFromConfigKeepsDefaultsWithoutConfig(t *testing.T) {
	platforms := PlatformsFromConfig(nil)
	require.Len(t, platforms, 4)
	assert.Equal(t, "openai", platforms[0].Slug)
	assert.InDelta(t, 0.03, platforms[0].CostPerQuery, 1e-9)
}
