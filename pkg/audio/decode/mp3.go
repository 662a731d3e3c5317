// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes complete MP3 payloads to normalized float32 samples
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// MP3Decoder decodes whole MP3 payloads, such as a synthesized utterance
// returned by a TTS service. go-mp3 always produces 16-bit stereo output
// at the file's native sample rate; Format reports the rate seen by the
// most recent Decode call.
type MP3Decoder struct {
	sampleRate int
}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (*MP3Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}

	return &MP3Decoder{}, nil
}

// Decode converts a complete MP3 payload to normalized float32 samples
func (d *MP3Decoder) Decode(data []byte) ([]float32, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	d.sampleRate = decoder.SampleRate()

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		sample16 := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples, nil
}

// Format returns the PCM format of the most recently decoded payload.
func (d *MP3Decoder) Format() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: d.sampleRate,
		Channels:   2, // go-mp3 always upmixes to stereo
		BitDepth:   16,
	}
}

// Close releases resources
func (d *MP3Decoder) Close() error {
	return nil
}
