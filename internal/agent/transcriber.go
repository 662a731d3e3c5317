// ABOUTME: Speech-to-text via the OpenAI audio transcription API
// ABOUTME: Accepts WAV payloads and returns the recognized text
package agent

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

// Transcriber converts captured speech audio to text.
type Transcriber struct {
	client openai.Client
	logger zerolog.Logger
	model  string
}

// NewTranscriber creates a transcriber. baseURL overrides the API endpoint
// for testing; empty uses the real API.
func NewTranscriber(apiKey, baseURL, model string, logger zerolog.Logger) *Transcriber {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	return &Transcriber{
		client: openai.NewClient(opts...),
		logger: logger.With().Str("component", "transcriber").Logger(),
		model:  model,
	}
}

// Transcribe sends a WAV payload for recognition and returns the text.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	t.logger.Debug().Int("bytes", len(wav)).Str("text", resp.Text).Msg("transcribed audio")
	return resp.Text, nil
}
