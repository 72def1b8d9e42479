package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMClient_Available(t *testing.T) {
	assert.False(t, NewLLMClient("", "model", "").Available())
	assert.True(t, NewLLMClient("key", "model", "").Available())
}

func TestLLMClient_ClassifyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		resp := messagesResponse{}
		resp.Content = append(resp.Content, struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{
			Type: "text",
			Text: `Here are the labels:
[{"path":"src/api.ts","role":"service","category":"backend","description":"HTTP client"}]`,
		})
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewLLMClient("secret", "test-model", srv.URL)
	out, err := c.ClassifyBatch(context.Background(), "repo", []FileSummary{{Path: "src/api.ts"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, RoleService, out["src/api.ts"].Role)
	assert.Equal(t, CategoryBackend, out["src/api.ts"].Category)
	assert.Equal(t, "HTTP client", out["src/api.ts"].Description)
}

func TestLLMClient_ClassifyBatch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewLLMClient("secret", "test-model", srv.URL)
	_, err := c.ClassifyBatch(context.Background(), "repo", []FileSummary{{Path: "a.ts"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLLMClient_NotConfigured(t *testing.T) {
	c := NewLLMClient("", "model", "")
	_, err := c.ClassifyBatch(context.Background(), "repo", nil)
	assert.Error(t, err)
}

func TestParseLabels(t *testing.T) {
	out, err := parseLabels(`[
		{"path":"a.ts","role":"Service","category":"BACKEND","description":"x"},
		{"path":"b.ts","role":"wizard","category":"elsewhere","description":"y"},
		{"path":"","role":"service","category":"backend","description":"dropped"}
	]`)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// case-insensitive enum parsing
	assert.Equal(t, RoleService, out["a.ts"].Role)
	assert.Equal(t, CategoryBackend, out["a.ts"].Category)

	// unrecognized tokens coerce to unknown instead of failing
	assert.Equal(t, RoleUnknown, out["b.ts"].Role)
	assert.Equal(t, CategoryUnknown, out["b.ts"].Category)
}

func TestParseLabels_NoArray(t *testing.T) {
	_, err := parseLabels("I could not classify these files.")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
