// Package testutil provides testing utilities for the Falcon client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Paths served by the mock Falcon API.
const (
	// TokenPath is the OAuth2 token endpoint.
	TokenPath = "/oauth2/token"

	// VulnerabilitiesPath is the Spotlight combined vulnerabilities endpoint.
	VulnerabilitiesPath = "/spotlight/combined/vulnerabilities/v1"
)

// MockResponse defines the behavior for a mock Falcon endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockFalcon is a configurable mock Falcon API server for testing.
type MockFalcon struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	TokenRequestCount int
	Offsets           []int
	LastQuery         url.Values
	LastRequestHeader http.Header
}

// NewMockFalcon creates a new mock Falcon API server. The token endpoint
// issues mock bearer tokens out of the box; vulnerability requests serve
// an empty result set until a handler is configured.
func NewMockFalcon() *MockFalcon {
	mock := &MockFalcon{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == TokenPath {
			mock.mu.Lock()
			mock.TokenRequestCount++
			mock.mu.Unlock()

			mock.mu.RLock()
			handler, exists := mock.handlers[TokenPath]
			mock.mu.RUnlock()

			if exists {
				handler(w, r)
				return
			}
			mock.defaultTokenHandler(w, r)
			return
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		mock.LastRequestHeader = r.Header.Clone()
		if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
			if offset, err := strconv.Atoi(offsetStr); err == nil {
				mock.Offsets = append(mock.Offsets, offset)
			}
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockFalcon) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockFalcon) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockFalcon) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TokenRequestCount = 0
	m.Offsets = nil
	m.LastQuery = nil
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockFalcon) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockFalcon) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		WriteMockResponse(w, resp)
	})
}

// SetVulnerabilitiesResponse configures the vulnerability endpoint response.
func (m *MockFalcon) SetVulnerabilitiesResponse(resp MockResponse) {
	m.SetResponse(VulnerabilitiesPath, resp)
}

// SetVulnerabilitiesHandler configures the vulnerability endpoint handler.
func (m *MockFalcon) SetVulnerabilitiesHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.SetHandler(VulnerabilitiesPath, handler)
}

// GetRequestCount returns the number of vulnerability requests received.
func (m *MockFalcon) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTokenRequestCount returns the number of token requests received.
func (m *MockFalcon) GetTokenRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequestCount
}

// GetOffsets returns the offsets of all vulnerability requests in order.
func (m *MockFalcon) GetOffsets() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	offsets := make([]int, len(m.Offsets))
	copy(offsets, m.Offsets)
	return offsets
}

// GetLastQuery returns the query parameters of the last vulnerability request.
func (m *MockFalcon) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// defaultTokenHandler issues a mock bearer token.
func (m *MockFalcon) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"access_token": "mock-access-token", "token_type": "bearer", "expires_in": 1799}`))
}

// defaultHandler serves an empty vulnerability result set.
func (m *MockFalcon) defaultHandler(w http.ResponseWriter, r *http.Request) {
	WriteMockResponse(w, NewHealthyResponse(NewPageBody(nil, 0)))
}

// WriteMockResponse writes a MockResponse to the response writer.
func WriteMockResponse(w http.ResponseWriter, resp MockResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewPageBody renders a Spotlight response envelope with the given
// resources and total count.
func NewPageBody(resources []string, total int) string {
	return fmt.Sprintf(`{"resources": [%s], "meta": {"pagination": {"total": %d, "limit": 500}}}`,
		strings.Join(resources, ", "), total)
}

// NewResource renders one vulnerability resource for the given index.
func NewResource(i int) string {
	return fmt.Sprintf(`{
		"id": "res-%d",
		"created_timestamp": "2024-01-01T00:00:00Z",
		"cve": {"id": "CVE-2024-%04d", "severity": "HIGH", "base_score": 8.8},
		"apps": [{"product_name_version": "Example App %d.0"}],
		"host": {
			"device_id": "dev-%d",
			"hostname": "HOST-%d",
			"local_ip": "10.0.%d.%d",
			"groups": ["servers"],
			"os_version": "Windows Server 2019",
			"platform_name": "Windows Server"
		}
	}`, i, i, i, i, i, i/250, i%250+1)
}

// NewHealthyResponse creates a 200 OK response with Falcon rate limit headers.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "6000",
			"X-RateLimit-Remaining": "5990",
			"Content-Type":          "application/json",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors": [{"code": 429, "message": "API rate limit exceeded"}]}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "6000",
			"X-RateLimit-Remaining": "0",
			"Content-Type":          "application/json",
		},
	}
}

// NewServerErrorResponse creates a transient server error response.
func NewServerErrorResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       `{"errors": [{"code": 503, "message": "service unavailable"}]}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewUnauthorizedResponse creates a 401 Unauthorized response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"errors": [{"code": 401, "message": "access denied, invalid bearer token"}]}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// PagedVulnerabilitiesHandler serves a deterministic result set of the
// given size, honoring the offset and limit query parameters the way
// the Spotlight API does.
func PagedVulnerabilitiesHandler(total int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 500
		}

		var resources []string
		for i := offset; i < offset+limit && i < total; i++ {
			resources = append(resources, NewResource(i))
		}

		w.Header().Set("X-RateLimit-Limit", "6000")
		w.Header().Set("X-RateLimit-Remaining", "5990")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"resources": [%s], "meta": {"pagination": {"total": %d, "offset": %d, "limit": %d}}}`,
			strings.Join(resources, ", "), total, offset, limit)
	}
}

// SequenceHandler returns the given responses in order, repeating the
// last one once the sequence is exhausted.
func SequenceHandler(responses ...MockResponse) func(w http.ResponseWriter, r *http.Request) {
	var mu sync.Mutex
	index := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[index]
		if index < len(responses)-1 {
			index++
		}
		mu.Unlock()

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		WriteMockResponse(w, resp)
	}
}
