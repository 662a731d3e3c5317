// ABOUTME: Tests for the retrieval memory store
// ABOUTME: Uses stub embed and query servers to verify context assembly
package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEmbedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"values": []float64{0.1, 0.2, 0.3}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestContextAssemblesTextsAndURLs(t *testing.T) {
	embed := startEmbedServer(t)

	var gotQuery map[string]any
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"score": 0.9, "metadata": map[string]any{"text": "fact one", "urls": []string{"https://example.com/one"}}},
				{"score": 0.8, "metadata": map[string]any{"text": "fact two"}},
			},
		})
	}))
	t.Cleanup(index.Close)

	s := New(Config{
		APIKey:    "test-key",
		EmbedURL:  embed.URL,
		IndexHost: index.URL,
		Namespace: "persona",
	}, zerolog.Nop())

	got := s.Context(context.Background(), "who are you")
	assert.Contains(t, got, "fact one")
	assert.Contains(t, got, "fact two")
	assert.Contains(t, got, "Possible relevant URLs:")
	assert.Contains(t, got, "https://example.com/one")

	assert.Equal(t, "persona", gotQuery["namespace"])
	assert.Equal(t, float64(3), gotQuery["topK"])
	assert.Equal(t, true, gotQuery["includeMetadata"])
}

func TestContextWithoutURLsOmitsURLSection(t *testing.T) {
	embed := startEmbedServer(t)
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"score": 0.9, "metadata": map[string]any{"text": "just text"}},
			},
		})
	}))
	t.Cleanup(index.Close)

	s := New(Config{APIKey: "test-key", EmbedURL: embed.URL, IndexHost: index.URL}, zerolog.Nop())
	got := s.Context(context.Background(), "question")
	assert.Contains(t, got, "just text")
	assert.NotContains(t, got, "Possible relevant URLs:")
}

func TestContextDegradesOnEmbedFailure(t *testing.T) {
	embed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusInternalServerError)
	}))
	t.Cleanup(embed.Close)

	s := New(Config{APIKey: "test-key", EmbedURL: embed.URL, IndexHost: "http://localhost:1"}, zerolog.Nop())
	assert.Empty(t, s.Context(context.Background(), "question"))
}

func TestContextDegradesOnQueryFailure(t *testing.T) {
	embed := startEmbedServer(t)
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadGateway)
	}))
	t.Cleanup(index.Close)

	s := New(Config{APIKey: "test-key", EmbedURL: embed.URL, IndexHost: index.URL}, zerolog.Nop())
	assert.Empty(t, s.Context(context.Background(), "question"))
}
