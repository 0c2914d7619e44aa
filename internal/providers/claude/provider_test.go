package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messageBody = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-haiku-20240307",
  "content": [
    {"type": "text", "text": "Acme leads the market. "},
    {"type": "text", "text": "See https://example.com/acme."}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 30, "output_tokens": 70}
}`

func TestQuery(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), "path %s", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageBody))
	}))
	defer server.Close()

	p := claude.NewProvider(testutil.SampleSettings(server.URL))
	assert.Equal(t, "anthropic", p.GetProviderName())

	resp, err := p.Query(context.Background(), &models.PlatformRequest{Prompt: "Who leads?"})
	require.NoError(t, err)

	assert.Equal(t, "Acme leads the market. See https://example.com/acme.", resp.Content)
	assert.Equal(t, "claude-3-haiku-20240307", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 100, *resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.Metadata.FinishReason)
	assert.Equal(t, "msg_01", resp.Metadata.ExternalID)

	assert.Equal(t, "claude-3-haiku-20240307", gotBody["model"])
	assert.EqualValues(t, 2000, gotBody["max_tokens"])
}

func TestQueryModelHint(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageBody))
	}))
	defer server.Close()

	p := claude.NewProvider(testutil.SampleSettings(server.URL))
	_, err := p.Query(context.Background(), &models.PlatformRequest{Prompt: "x", ModelHint: "claude-3-sonnet-20240229"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-sonnet-20240229", gotModel)
}

func TestQueryNotConfigured(t *testing.T) {
	settings := testutil.SampleSettings("http://127.0.0.1:1")
	settings.APIKey = ""

	_, err := claude.NewProvider(settings).Query(context.Background(), &models.PlatformRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, common.CodeNotConfigured, common.CodeOf(err))
	assert.Equal(t, "Anthropic API key not configured", err.Error())
}

func TestQueryRateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	limiter := &testutil.MockLimiter{Allow: false}
	settings := testutil.SampleSettings(server.URL)
	settings.Limiter = limiter

	_, err := claude.NewProvider(settings).Query(context.Background(), &models.PlatformRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, common.CodeRateLimit, common.CodeOf(err))
	assert.Equal(t, "Rate limit exceeded", err.(*common.PlatformError).Detail)
	assert.Equal(t, []string{"anthropic"}, limiter.Acquired)
	assert.Zero(t, calls)
}
