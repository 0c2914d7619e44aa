package perplexity_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/perplexity"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonReply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestQueryParsesCitations(t *testing.T) {
	var captured map[string]interface{}
	doer := &testutil.MockHTTPDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "https://api.test/chat/completions", req.URL.String())
			assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))
			_ = json.NewDecoder(req.Body).Decode(&captured)
			return jsonReply(http.StatusOK, testutil.SamplePerplexityResponse()), nil
		},
	}

	settings := testutil.SampleSettings("https://api.test/")
	settings.HTTPClient = doer
	p := perplexity.NewProvider(settings)

	resp, err := p.Query(context.Background(), &models.PlatformRequest{Prompt: "best crm"})
	require.NoError(t, err)

	assert.Equal(t, "perplexity", resp.Platform)
	assert.Equal(t, "llama-3.1-sonar-small-128k-online", resp.Model)
	assert.Contains(t, resp.Content, "Acme")
	require.Len(t, resp.Metadata.Citations, 2)
	assert.Equal(t, "https://news.example.com/acme", resp.Metadata.Citations[0].URL)
	assert.Equal(t, "https://blog.example.org/review", resp.Metadata.Citations[1].URL)
	assert.Equal(t, "Acme review", resp.Metadata.Citations[1].Title)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 42, *resp.Usage.TotalTokens)
	assert.Equal(t, "pplx-1", resp.Metadata.ExternalID)

	assert.Equal(t, true, captured["return_citations"])
	assert.EqualValues(t, 2000, captured["max_tokens"])
}

func TestQueryWithoutUsage(t *testing.T) {
	doer := &testutil.MockHTTPDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonReply(http.StatusOK, `{"id":"x","choices":[{"message":{"role":"assistant","content":"hi"}}]}`), nil
		},
	}
	settings := testutil.SampleSettings("")
	settings.HTTPClient = doer

	resp, err := perplexity.NewProvider(settings).Query(context.Background(), &models.PlatformRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Nil(t, resp.Usage)
	assert.Empty(t, resp.Metadata.Citations)
}

func TestQueryFailures(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		doFunc   func(*http.Request) (*http.Response, error)
		wantCode string
	}{
		{
			name:     "missing key",
			apiKey:   "",
			wantCode: common.CodeNotConfigured,
		},
		{
			name:   "server error",
			apiKey: "k",
			doFunc: func(*http.Request) (*http.Response, error) {
				return jsonReply(http.StatusBadGateway, "bad gateway"), nil
			},
			wantCode: common.CodeAPIError,
		},
		{
			name:   "transport error",
			apiKey: "k",
			doFunc: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantCode: common.CodeAPIError,
		},
		{
			name:   "deadline",
			apiKey: "k",
			doFunc: func(*http.Request) (*http.Response, error) {
				return nil, context.DeadlineExceeded
			},
			wantCode: common.CodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testutil.SampleSettings("https://api.test")
			settings.APIKey = tt.apiKey
			settings.HTTPClient = &testutil.MockHTTPDoer{DoFunc: tt.doFunc}

			_, err := perplexity.NewProvider(settings).Query(context.Background(), &models.PlatformRequest{Prompt: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, common.CodeOf(err))
		})
	}
}

func TestQueryAgainstServer(t *testing.T) {
	server := testutil.NewMockPerplexityServer()
	defer server.Close()

	p := perplexity.NewProvider(testutil.SampleSettings(server.Server.URL))
	resp, err := p.Query(context.Background(), &models.PlatformRequest{Prompt: "best crm", ModelHint: "sonar-pro"})
	require.NoError(t, err)
	assert.Equal(t, "sonar-pro", resp.Model)
	assert.Equal(t, "stop", resp.Metadata.FinishReason)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "sonar-pro", reqs[0]["model"])

	server.SetReply(http.StatusTooManyRequests, `{"error":"slow down"}`)
	_, err = p.Query(context.Background(), &models.PlatformRequest{Prompt: "again"})
	require.Error(t, err)
	assert.Equal(t, common.CodeAPIError, common.CodeOf(err))
	var se *common.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}
