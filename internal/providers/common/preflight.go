package common

import (
	"context"

	"github.com/AI-Template-SDK/senso-query-engine/internal/metrics"
	"github.com/AI-Template-SDK/senso-query-engine/internal/ratelimit"
)

// Preflight runs the checks every adapter performs before a remote call:
// credential presence first, then the per-minute budget.
func Preflight(ctx context.Context, limiter ratelimit.Limiter, platform, label, apiKey string, budget int) error {
	if apiKey == "" {
		return NotConfigured(platform, label)
	}
	if limiter != nil && !limiter.TryAcquire(ctx, platform, budget) {
		metrics.RateLimitDenials.WithLabelValues(platform).Inc()
		return RateLimited(platform)
	}
	return nil
}

// Budget picks the request budget, preferring the platform descriptor's value.
func Budget(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	return fallback
}

// Model picks the model, preferring the caller's hint.
func Model(hint, fallback string) string {
	if hint != "" {
		return hint
	}
	return fallback
}

// MaskAPIKey keeps only the edges of a key for logs.
func MaskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// IntPtr converts SDK token counters into optional ints.
func IntPtr[T ~int | ~int32 | ~int64](v T) *int {
	n := int(v)
	return &n
}
