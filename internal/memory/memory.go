// ABOUTME: Retrieval memory backed by a Pinecone-style vector index
// ABOUTME: Embeds queries and returns relevant text plus any attached URLs
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultEmbedModel = "llama-text-embed-v2"
	defaultTopK       = 3
)

// Config holds memory store configuration.
type Config struct {
	APIKey     string
	EmbedURL   string // embedding inference endpoint
	IndexHost  string // index host for queries
	Namespace  string
	EmbedModel string
	TopK       int
}

// Store retrieves conversation context from a vector index.
type Store struct {
	httpClient *http.Client
	logger     zerolog.Logger
	cfg        Config
}

// New creates a memory store.
func New(cfg Config, logger zerolog.Logger) *Store {
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.TopK == 0 {
		cfg.TopK = defaultTopK
	}
	return &Store{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("component", "memory").Logger(),
		cfg:        cfg,
	}
}

// Context embeds the message, queries the index, and assembles a context
// string from the matched texts and URLs. Failures degrade to an empty
// context so the conversation can continue without retrieval.
func (s *Store) Context(ctx context.Context, message string) string {
	vector, err := s.embed(ctx, message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("embedding failed, continuing without context")
		return ""
	}

	texts, urls, err := s.query(ctx, vector)
	if err != nil {
		s.logger.Warn().Err(err).Msg("index query failed, continuing without context")
		return ""
	}

	var b strings.Builder
	for _, text := range texts {
		b.WriteString(text)
		b.WriteString("\n")
	}
	if len(urls) > 0 {
		b.WriteString("Possible relevant URLs:\n")
		for _, u := range urls {
			b.WriteString(u)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Store) embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"model": s.cfg.EmbedModel,
		"inputs": []map[string]string{
			{"text": text},
		},
		"parameters": map[string]string{"input_type": "query"},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			Values []float64 `json:"values"`
		} `json:"data"`
	}
	if err := s.post(ctx, s.cfg.EmbedURL, body, &resp); err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed response contained no vectors")
	}
	return resp.Data[0].Values, nil
}

func (s *Store) query(ctx context.Context, vector []float64) (texts, urls []string, err error) {
	body, err := json.Marshal(map[string]any{
		"namespace":       s.cfg.Namespace,
		"vector":          vector,
		"topK":            s.cfg.TopK,
		"includeMetadata": true,
	})
	if err != nil {
		return nil, nil, err
	}

	var resp struct {
		Matches []struct {
			Score    float64 `json:"score"`
			Metadata struct {
				Text string   `json:"text"`
				URLs []string `json:"urls"`
			} `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.post(ctx, s.cfg.IndexHost+"/query", body, &resp); err != nil {
		return nil, nil, fmt.Errorf("query request: %w", err)
	}

	for _, m := range resp.Matches {
		if m.Metadata.Text != "" {
			texts = append(texts, m.Metadata.Text)
		}
		urls = append(urls, m.Metadata.URLs...)
	}
	s.logger.Debug().Int("matches", len(resp.Matches)).Msg("retrieved context")
	return texts, urls, nil
}

func (s *Store) post(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
