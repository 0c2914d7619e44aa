package common_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/common"
	"github.com/AI-Template-SDK/senso-query-engine/internal/providers/testutil"
)

func TestJSONClientPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"echo": body["prompt"]})
	}))
	defer server.Close()

	client := common.NewJSONClient("test-key", server.URL, nil)

	var out struct {
		Echo string `json:"echo"`
	}
	if err := client.PostJSON(context.Background(), "/chat/completions", map[string]string{"prompt": "hi"}, &out); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if out.Echo != "hi" {
		t.Errorf("expected echo 'hi', got %q", out.Echo)
	}
}

func TestJSONClientStatusError(t *testing.T) {
	doer := &testutil.MockHTTPDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader(`{"error":"slow down"}`)),
				Header:     make(http.Header),
			}, nil
		},
	}
	client := common.NewJSONClient("k", "https://example.invalid", doer)

	var out map[string]interface{}
	err := client.PostJSON(context.Background(), "/x", map[string]string{}, &out)

	var statusErr *common.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "slow down") {
		t.Errorf("expected body to be captured, got %q", statusErr.Body)
	}
}
