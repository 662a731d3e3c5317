// ABOUTME: Tests for the conversational agent
// ABOUTME: Uses a stub chat completion server to verify history and parsing
package agent

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

type capturedRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Model string `json:"model"`
}

// startChatServer returns a stub that records requests and answers with
// the given assistant content.
func startChatServer(t *testing.T, content string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requests = append(requests, req)
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestAgent(t *testing.T, baseURL string) *Agent {
	t.Helper()
	return New(Config{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		AgentName:   "Version One",
		PersonaName: "Ada Lovelace",
	}, zerolog.Nop())
}

func TestRespondParsesStrictJSON(t *testing.T) {
	srv, _ := startChatServer(t, `{"long_answer":"A long reply.","short_answer":"Short.","media_urls":["https://example.com/a"]}`)
	a := newTestAgent(t, srv.URL)

	reply, err := a.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "A long reply.", reply.Long)
	assert.Equal(t, "Short.", reply.Short)
	assert.Equal(t, []string{"https://example.com/a"}, reply.MediaURLs)
}

func TestRespondFallsBackOnPlainText(t *testing.T) {
	srv, _ := startChatServer(t, "I cannot answer that in JSON.")
	a := newTestAgent(t, srv.URL)

	reply, err := a.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "I cannot answer that in JSON.", reply.Long)
	assert.Equal(t, "Here is a short summary.", reply.Short, "raw text is never spoken")
	assert.Empty(t, reply.MediaURLs)
}

func TestRespondReplaysHistory(t *testing.T) {
	srv, requests := startChatServer(t, `{"long_answer":"ok","short_answer":"ok","media_urls":[]}`)
	a := newTestAgent(t, srv.URL)

	_, err := a.Respond(context.Background(), "first question", "")
	require.NoError(t, err)
	_, err = a.Respond(context.Background(), "second question", "")
	require.NoError(t, err)

	require.Len(t, *requests, 2)
	second := (*requests)[1]
	// first question, the agent's short answer, then the prompted second question
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "user", second.Messages[0].Role)
	assert.Equal(t, "first question", second.Messages[0].Content)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "ok", second.Messages[1].Content)
	assert.Equal(t, "user", second.Messages[2].Role)
	assert.Contains(t, second.Messages[2].Content, "second question")
	assert.Contains(t, second.Messages[2].Content, "Version One")
}

func TestRespondInjectsContextWithoutRecordingIt(t *testing.T) {
	srv, requests := startChatServer(t, `{"long_answer":"ok","short_answer":"ok","media_urls":[]}`)
	a := newTestAgent(t, srv.URL)

	_, err := a.Respond(context.Background(), "what do you do", "retrieved background facts")
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	assert.Contains(t, (*requests)[0].Messages[0].Content, "retrieved background facts")

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, "what do you do", history[0].Text)
	assert.NotContains(t, history[0].Text, "retrieved background facts")
}

func TestResetClearsHistory(t *testing.T) {
	srv, _ := startChatServer(t, `{"long_answer":"ok","short_answer":"ok","media_urls":[]}`)
	a := newTestAgent(t, srv.URL)

	_, err := a.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	require.NotEmpty(t, a.History())

	a.Reset()
	assert.Empty(t, a.History())
}

func TestRespondServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	a := newTestAgent(t, srv.URL)

	_, err := a.Respond(context.Background(), "hello", "")
	assert.Error(t, err)
}
