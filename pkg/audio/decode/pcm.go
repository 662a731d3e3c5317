// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit little-endian PCM to normalized float32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// PCMDecoder decodes raw 16-bit little-endian PCM.
type PCMDecoder struct{}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &PCMDecoder{}, nil
}

// Decode converts PCM bytes to normalized float32 samples
func (d *PCMDecoder) Decode(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("pcm payload length must be even, got %d bytes", len(data))
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
