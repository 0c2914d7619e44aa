package common_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/AI-Template-SDK/senso-query-engine/internal/ratelimit"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not configured", common.NotConfigured("openai", "OpenAI"), common.CodeNotConfigured},
		{"wrapped rate limit", fmt.Errorf("dispatch: %w", common.RateLimited("anthropic")), common.CodeRateLimit},
		{"deadline through APIError", common.APIError("google", "Google AI", context.DeadlineExceeded), common.CodeTimeout},
		{"bare deadline", context.DeadlineExceeded, common.CodeTimeout},
		{"untyped", errors.New("boom"), common.CodeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := common.CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlatformErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("502 bad gateway")
	err := common.APIError("perplexity", "Perplexity", cause)

	if err.Error() != "Perplexity API error: 502 bad gateway" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("APIError should unwrap to its cause")
	}
	if !err.Retryable() {
		t.Error("API_ERROR should be retryable")
	}

	nc := common.NotConfigured("openai", "OpenAI")
	if nc.Error() != "OpenAI API key not configured" {
		t.Errorf("unexpected message: %q", nc.Error())
	}
	if nc.Retryable() {
		t.Error("NOT_CONFIGURED needs operator action and must not be retryable")
	}
}

func TestPreflight(t *testing.T) {
	ctx := context.Background()
	limiter := ratelimit.NewWindowLimiter()

	if err := common.Preflight(ctx, limiter, "openai", "OpenAI", "", 10); common.CodeOf(err) != common.CodeNotConfigured {
		t.Fatalf("missing key should be NOT_CONFIGURED, got %v", err)
	}

	if err := common.Preflight(ctx, limiter, "openai", "OpenAI", "sk-test", 1); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if err := common.Preflight(ctx, limiter, "openai", "OpenAI", "sk-test", 1); common.CodeOf(err) != common.CodeRateLimit {
		t.Fatalf("second call should be RATE_LIMIT, got %v", err)
	}
}

func TestBudgetAndModel(t *testing.T) {
	if common.Budget(0, 60) != 60 || common.Budget(5, 60) != 5 {
		t.Error("Budget should prefer a positive requested value")
	}
	if common.Model("", "gpt-4") != "gpt-4" || common.Model("gpt-4o", "gpt-4") != "gpt-4o" {
		t.Error("Model should prefer the hint")
	}
	if common.MaskAPIKey("short") != "***" || common.MaskAPIKey("sk-1234567890") != "sk-1...7890" {
		t.Error("MaskAPIKey masked incorrectly")
	}
}
