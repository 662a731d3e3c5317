// ABOUTME: ElevenLabs text-to-speech HTTP client
// ABOUTME: Converts reply text into mp3 audio for the avatar to speak
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID = "Ib4kDyWcM5DppIOQH52e"
	defaultModelID = "eleven_monolingual_v1"

	defaultStability  = 0.3
	defaultSimilarity = 0.75
)

// Config holds synthesizer configuration.
type Config struct {
	APIKey     string
	BaseURL    string // override for testing; empty uses the real API
	VoiceID    string
	ModelID    string
	Stability  float64
	Similarity float64
}

// Synthesizer turns text into spoken mp3 audio via the ElevenLabs API.
type Synthesizer struct {
	httpClient *http.Client
	logger     zerolog.Logger
	cfg        Config
}

// New creates a synthesizer with defaults filled in.
func New(cfg Config, logger zerolog.Logger) *Synthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.Stability == 0 {
		cfg.Stability = defaultStability
	}
	if cfg.Similarity == 0 {
		cfg.Similarity = defaultSimilarity
	}
	return &Synthesizer{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("component", "voice").Logger(),
		cfg:        cfg,
	}
}

// Synthesize converts text to mp3 audio.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": s.cfg.ModelID,
		"voice_settings": map[string]float64{
			"stability":        s.cfg.Stability,
			"similarity_boost": s.cfg.Similarity,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.cfg.BaseURL, s.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.cfg.APIKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis failed with status %d: %s", resp.StatusCode, detail)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	s.logger.Debug().Int("chars", len(text)).Int("bytes", len(audio)).Msg("synthesized speech")
	return audio, nil
}
