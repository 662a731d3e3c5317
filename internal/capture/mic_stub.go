//go:build !malgo

// ABOUTME: Microphone stub when miniaudio support is not compiled in
// ABOUTME: Provides compile-time placeholder matching the malgo build
package capture

import (
	"fmt"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// Mic capture source (stub).
type Mic struct{}

// NewMic reports that capture support is not compiled in
func NewMic(format audio.Format, ringSeconds int) (*Mic, error) {
	return nil, fmt.Errorf("microphone capture not enabled (build with -tags malgo)")
}

// Position returns the write cursor in samples
func (m *Mic) Position() int { return 0 }

// BufferSize returns the ring capacity in samples
func (m *Mic) BufferSize() int { return 0 }

// Read fills dst starting at ring offset from
func (m *Mic) Read(dst []float32, from int) {}

// Close stops the capture device
func (m *Mic) Close() error { return nil }
