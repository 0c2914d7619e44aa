package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
)

// MockAdapter is a scripted platform adapter
type MockAdapter struct {
	Name      string
	QueryFunc func(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error)

	calls int32
}

func (m *MockAdapter) Query(ctx context.Context, req *models.PlatformRequest) (*models.NormalizedResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, req)
	}
	return SampleNormalizedResponse(m.Name, "Mock response from "+m.Name), nil
}

func (m *MockAdapter) GetProviderName() string {
	return m.Name
}

// Calls returns how many times Query ran
func (m *MockAdapter) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

// MockLimiter records acquisitions and answers with Allow
type MockLimiter struct {
	Allow bool

	mu       sync.Mutex
	Acquired []string
}

func (m *MockLimiter) TryAcquire(ctx context.Context, platform string, budget int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acquired = append(m.Acquired, platform)
	return m.Allow
}

// MockPerplexityServer serves canned chat completions
type MockPerplexityServer struct {
	Server *httptest.Server
	Status int
	Body   string

	mu       sync.Mutex
	requests []map[string]interface{}
}

func NewMockPerplexityServer() *MockPerplexityServer {
	mock := &MockPerplexityServer{
		Status: http.StatusOK,
		Body:   SamplePerplexityResponse(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)

		mock.mu.Lock()
		mock.requests = append(mock.requests, payload)
		status, body := mock.Status, mock.Body
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockPerplexityServer) Close() {
	m.Server.Close()
}

// SetReply changes the canned status and body
func (m *MockPerplexityServer) SetReply(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = status
	m.Body = body
}

// Requests returns the decoded request payloads seen so far
func (m *MockPerplexityServer) Requests() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]interface{}(nil), m.requests...)
}

// MockHTTPDoer is a mock HTTP client for testing
type MockHTTPDoer struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return nil, nil
}
