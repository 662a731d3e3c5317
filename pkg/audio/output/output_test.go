// ABOUTME: Tests for audio output helpers
// ABOUTME: Verifies volume application and sample byte conversion
package output

import (
	"encoding/binary"
	"testing"
)

func TestGetVolumeMultiplier(t *testing.T) {
	if got := getVolumeMultiplier(100, false); got != 1.0 {
		t.Errorf("expected 1.0 at full volume, got %v", got)
	}
	if got := getVolumeMultiplier(50, false); got != 0.5 {
		t.Errorf("expected 0.5 at half volume, got %v", got)
	}
	if got := getVolumeMultiplier(100, true); got != 0.0 {
		t.Errorf("expected 0.0 when muted, got %v", got)
	}
	if got := getVolumeMultiplier(0, false); got != 0.0 {
		t.Errorf("expected 0.0 at zero volume, got %v", got)
	}
}

func TestApplyVolume(t *testing.T) {
	samples := []float32{1.0, -1.0, 0.5}

	halved := applyVolume(samples, 50, false)
	if halved[0] != 0.5 || halved[1] != -0.5 || halved[2] != 0.25 {
		t.Errorf("unexpected halved samples: %v", halved)
	}

	muted := applyVolume(samples, 100, true)
	for i, s := range muted {
		if s != 0 {
			t.Errorf("sample %d not silenced: %v", i, s)
		}
	}

	// Full volume must not copy
	full := applyVolume(samples, 100, false)
	if &full[0] != &samples[0] {
		t.Error("expected full volume to return input slice")
	}
}

func TestSamplesToBytes(t *testing.T) {
	data := samplesToBytes([]float32{1.0, -1.0, 0})

	if len(data) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(data))
	}
	if v := int16(binary.LittleEndian.Uint16(data[0:])); v != 32767 {
		t.Errorf("expected 32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(data[2:])); v != -32767 {
		t.Errorf("expected -32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(data[4:])); v != 0 {
		t.Errorf("expected 0, got %d", v)
	}
}
