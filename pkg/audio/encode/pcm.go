// ABOUTME: PCM audio encoder
// ABOUTME: Encodes normalized float32 samples to 16-bit little-endian PCM
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// PCMEncoder encodes 16-bit little-endian PCM.
type PCMEncoder struct{}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &PCMEncoder{}, nil
}

// Encode converts normalized float32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []float32) ([]byte, error) {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		sample16 := audio.SampleToInt16(sample)
		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample16))
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
