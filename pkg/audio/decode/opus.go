// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus frames to normalized float32 samples
package decode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// OpusDecoder decodes Opus frames.
type OpusDecoder struct {
	decoder *opus.Decoder
	format  audio.Format
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (*OpusDecoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		format:  format,
	}, nil
}

// Decode converts one Opus frame to normalized float32 samples
func (d *OpusDecoder) Decode(data []byte) ([]float32, error) {
	// 5760 is the maximum Opus frame size per channel (120ms at 48kHz)
	pcm := make([]float32, 5760*d.format.Channels)

	n, err := d.decoder.DecodeFloat32(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	return pcm[:n*d.format.Channels], nil
}

// Close releases resources
func (d *OpusDecoder) Close() error {
	return nil
}
