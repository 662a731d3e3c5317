// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and PCM sample conversions
package audio

import "time"

const (
	// MaxInt16 is the full-scale value used for 16-bit PCM normalization.
	MaxInt16 = 32767
)

// Format describes an audio stream format. Chunks on the wire are not
// self-describing; both sides agree on a Format out-of-band.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerFrame returns the size of one frame (one sample per channel) in bytes.
func (f Format) BytesPerFrame() int {
	bytesPerSample := f.BitDepth / 8
	if bytesPerSample == 0 {
		bytesPerSample = 2
	}
	return bytesPerSample * f.Channels
}

// Duration returns the playback time of a raw PCM buffer in this format.
func (f Format) Duration(nbytes int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := nbytes / f.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// SampleFromInt16 converts a signed 16-bit PCM sample to a normalized
// float in [-1, 1].
func SampleFromInt16(s int16) float32 {
	return float32(s) / MaxInt16
}

// SampleToInt16 converts a normalized float sample to signed 16-bit PCM.
// Input outside [-1, 1] is clamped rather than wrapped.
func SampleToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return int16(s * MaxInt16)
}
