// ABOUTME: Tests for audio types and sample conversions
// ABOUTME: Verifies format math and PCM normalization round-trips
package audio

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	format := Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16}

	// One second of mono 16-bit audio at 16kHz is 32000 bytes.
	if got := format.Duration(32000); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}

	stereo := Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}
	if got := stereo.Duration(44100 * 4); got != time.Second {
		t.Errorf("expected 1s for stereo, got %v", got)
	}
}

func TestFormatDurationZeroRate(t *testing.T) {
	var format Format
	if got := format.Duration(1024); got != 0 {
		t.Errorf("expected 0 for zero-value format, got %v", got)
	}
}

func TestSampleConversionExtremes(t *testing.T) {
	if got := SampleToInt16(1.0); got != MaxInt16 {
		t.Errorf("expected %d for full scale, got %d", MaxInt16, got)
	}
	if got := SampleToInt16(-1.0); got != -MaxInt16 {
		t.Errorf("expected %d for negative full scale, got %d", -MaxInt16, got)
	}
	if got := SampleToInt16(0); got != 0 {
		t.Errorf("expected 0 for silence, got %d", got)
	}
}

func TestSampleToInt16Clamps(t *testing.T) {
	if got := SampleToInt16(2.5); got != MaxInt16 {
		t.Errorf("expected clamp to %d, got %d", MaxInt16, got)
	}
	if got := SampleToInt16(-3.0); got != -MaxInt16 {
		t.Errorf("expected clamp to %d, got %d", -MaxInt16, got)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	// Encoding then decoding must stay within one quantization step.
	values := []float32{0, 0.25, -0.25, 0.5, -0.5, 0.99, -0.99, 1, -1}
	for _, v := range values {
		back := SampleFromInt16(SampleToInt16(v))
		if math.Abs(float64(back-v)) > 1.0/MaxInt16 {
			t.Errorf("round trip of %v drifted to %v", v, back)
		}
	}
}
