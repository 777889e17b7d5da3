// Package testutil provides testing utilities for the blinq API.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// TestServer wraps httptest.Server with convenience methods.
// Once Token is set, every request carries it as a bearer token.
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	Token   string
	t       *testing.T
}

// TestEnv returns BLINQ_* variables for a throwaway server rooted at dataDir
func TestEnv(dataDir string) map[string]string {
	return map[string]string{
		"BLINQ_DATA_DIR":    dataDir,
		"BLINQ_STORE":       "memory",
		"BLINQ_BCRYPT_COST": "4",
		"BLINQ_DEBUG":       "true",
		"BLINQ_LISTEN_ADDR": ":0", // Random port
	}
}

// SetTestEnv sets environment variables for testing; they are restored when the test ends
func SetTestEnv(t *testing.T) {
	t.Helper()
	for k, v := range TestEnv(t.TempDir()) {
		t.Setenv(k, v)
	}
}

// NewTestServer creates a new test server using the application's router
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		t:       t,
	}
}

// Do performs a request. A non-nil body that is not an io.Reader is sent as JSON.
func (ts *TestServer) Do(method, path string, body any, headers map[string]string) *http.Response {
	ts.t.Helper()

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatalf("marshal %s %s body: %v", method, path, err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequest(method, ts.BaseURL+path, reader)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodGet, path, nil, nil)
}

// GETWithQuery performs a GET request with query parameters
func (ts *TestServer) GETWithQuery(path string, query map[string]string) *http.Response {
	ts.t.Helper()

	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	return ts.GET(path)
}

// POST sends body as JSON
func (ts *TestServer) POST(path string, body any) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodPost, path, body, nil)
}

// PUT sends body as JSON
func (ts *TestServer) PUT(path string, body any) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodPut, path, body, nil)
}

// DELETE performs a DELETE request to the given path
func (ts *TestServer) DELETE(path string) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodDelete, path, nil, nil)
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// DecodeJSON decodes the response body into v
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}
