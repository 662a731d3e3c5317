//go:build malgo

// ABOUTME: Microphone capture source backed by miniaudio via malgo
// ABOUTME: Fills a circular buffer from the default capture device
package capture

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// Mic is a Source fed by the default system capture device. The device
// callback writes into a ring; readers poll Position like any Source.
type Mic struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	mu   sync.RWMutex
	ring []float32
	pos  int
}

// NewMic opens the default capture device in the given format. The ring
// holds ringSeconds of audio; it must comfortably exceed the poll window.
func NewMic(format audio.Format, ringSeconds int) (*Mic, error) {
	if ringSeconds <= 0 {
		ringSeconds = 10
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init capture context: %w", err)
	}

	m := &Mic{
		malgoCtx: mctx,
		ring:     make([]float32, ringSeconds*format.SampleRate*format.Channels),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			m.write(input)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return m, nil
}

func (m *Mic) write(input []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i+1 < len(input); i += 2 {
		sample16 := int16(binary.LittleEndian.Uint16(input[i:]))
		m.ring[m.pos] = audio.SampleFromInt16(sample16)
		m.pos = (m.pos + 1) % len(m.ring)
	}
}

// Position returns the write cursor in samples
func (m *Mic) Position() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pos
}

// BufferSize returns the ring capacity in samples
func (m *Mic) BufferSize() int {
	return len(m.ring)
}

// Read fills dst starting at ring offset from, wrapping as needed
func (m *Mic) Read(dst []float32, from int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range dst {
		dst[i] = m.ring[(from+i)%len(m.ring)]
	}
}

// Close stops the capture device
func (m *Mic) Close() error {
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		m.malgoCtx.Uninit()
		m.malgoCtx = nil
	}
	return nil
}
