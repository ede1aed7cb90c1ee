package infrastructure

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResponse(t *testing.T) {
	var gotPath string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "generated reply"}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClient("key-abc", "", srv.URL, nil)
	text, err := client.GenerateResponse(t.Context(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated reply", text)
	assert.Equal(t, "/models/"+DefaultGeminiModel+":generateContent", gotPath)

	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "the prompt", gotReq.Contents[0].Parts[0].Text)
}

func TestGenerateResponseMissingKey(t *testing.T) {
	client := NewGeminiClient("", "", "", nil)
	_, err := client.GenerateResponse(t.Context(), "x")
	assert.Error(t, err)
}

func TestGenerateResponseAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClient("key-abc", "", srv.URL, nil)
	_, err := client.GenerateResponse(t.Context(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateResponseNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClient("key-abc", "", srv.URL, nil)
	_, err := client.GenerateResponse(t.Context(), "x")
	assert.Error(t, err)
}
