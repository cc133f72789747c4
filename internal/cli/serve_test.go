package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/layerkit/pkg/cache"
	"github.com/matzehuels/layerkit/pkg/observability"
	"github.com/matzehuels/layerkit/pkg/pipeline"
)

type recordingHTTPHooks struct {
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string) {}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	require.NoError(t, err)
	runner := pipeline.NewRunner(fc, nil, logger)
	srv := httptest.NewServer(newServer(runner, logger, 10*time.Second))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/v1/layout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
}

func TestServeLayout(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)
	srv := testServer(t)

	body := `{
		"graph": {
			"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
			"edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c"}]
		},
		"options": {"layering": "longest-path", "formats": ["json", "dot"]}
	}`

	resp := post(t, srv.URL, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got layoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, got.RunID, got.Layout.RunID)
	assert.Equal(t, "longest-path", got.Layout.Layering)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, got.Layout.Layers)
	assert.Equal(t, 3, got.Stats.Nodes)
	assert.False(t, got.Cached)
	assert.Contains(t, got.Artifacts["dot"], `"a" -> "b"`)
	assert.NotContains(t, got.Artifacts, "json")

	again := post(t, srv.URL, body)
	require.Equal(t, http.StatusOK, again.StatusCode)
	var second layoutResponse
	require.NoError(t, json.NewDecoder(again.Body).Decode(&second))
	assert.True(t, second.Cached)
	assert.NotEqual(t, got.RunID, second.RunID)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, hooks.statuses)
}

func TestServeLayoutErrors(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"graph":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", `{"graph": {"nodes": []}, "extra": 1}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad option", `{"graph": {"nodes": [{"id": "a"}]}, "options": {"layering": "bogus"}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"dangling edge", `{"graph": {"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "x"}]}}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var got errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Message)
			assert.Equal(t, resp.Header.Get(headerRequestID), got.RequestID)
		})
	}
}

func TestServeKeepsClientRequestID(t *testing.T) {
	srv := testServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "client-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "client-42", resp.Header.Get(headerRequestID))
}

func TestServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), log.New(io.Discard))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
