// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders
package decode

import (
	"fmt"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// Decoder decodes audio in various formats to normalized float32 PCM samples.
type Decoder interface {
	// Decode converts encoded audio data to PCM samples in [-1, 1]
	Decode(data []byte) ([]float32, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the format's codec.
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	case "mp3":
		return NewMP3(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
