// ABOUTME: Microphone capture windowing over a circular buffer
// ABOUTME: Emits fixed-size PCM windows by polling a wrapping write cursor
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/pkg/audio"
	"github.com/versionone-ai/voicerelay/pkg/audio/encode"
)

// Source exposes a circular capture buffer the way audio devices do:
// a write cursor that advances as samples arrive and wraps at the ring
// size, plus random access into the ring.
type Source interface {
	// Position returns the device write cursor in samples, in [0, BufferSize)
	Position() int

	// BufferSize returns the ring capacity in samples
	BufferSize() int

	// Read fills dst with samples starting at ring offset from, wrapping
	// around the end of the ring as needed
	Read(dst []float32, from int)
}

// Config controls window extraction.
type Config struct {
	Format        audio.Format
	WindowSeconds float64
	Cadence       time.Duration
}

// Windower tracks a read cursor into a Source's ring and cuts the stream
// into fixed-size PCM windows. A window is emitted only once fully
// accumulated.
//
// When the write cursor wraps past the read cursor the distance is
// computed modulo the ring size, so the window spanning the wrap is
// reassembled from the tail and head segments. The cursor is never reset
// to zero; a reset would silently discard up to one window of samples at
// every wrap.
type Windower struct {
	src        Source
	encoder    *encode.PCMEncoder
	logger     zerolog.Logger
	cadence    time.Duration
	windowSize int
	window     []float32
	cursor     int
}

// NewWindower creates a windower over src.
func NewWindower(src Source, cfg Config, logger zerolog.Logger) (*Windower, error) {
	if cfg.WindowSeconds <= 0 {
		return nil, fmt.Errorf("window seconds must be positive, got %v", cfg.WindowSeconds)
	}

	windowSize := int(cfg.WindowSeconds * float64(cfg.Format.SampleRate) * float64(cfg.Format.Channels))
	if windowSize <= 0 {
		return nil, fmt.Errorf("window of %vs at %dHz is empty", cfg.WindowSeconds, cfg.Format.SampleRate)
	}
	if windowSize > src.BufferSize() {
		return nil, fmt.Errorf("window of %d samples exceeds ring capacity %d", windowSize, src.BufferSize())
	}

	enc, err := encode.NewPCM(cfg.Format)
	if err != nil {
		return nil, err
	}

	cadence := cfg.Cadence
	if cadence <= 0 {
		cadence = 50 * time.Millisecond
	}

	return &Windower{
		src:        src,
		encoder:    enc,
		logger:     logger.With().Str("component", "capture").Logger(),
		cadence:    cadence,
		windowSize: windowSize,
		window:     make([]float32, windowSize),
	}, nil
}

// Poll extracts every full window accumulated since the last call and
// returns them as 16-bit PCM chunks, oldest first.
func (w *Windower) Poll() [][]byte {
	pos := w.src.Position()

	// Modulo distance handles the write cursor wrapping behind the
	// read cursor without losing or duplicating samples.
	avail := pos - w.cursor
	if avail < 0 {
		avail += w.src.BufferSize()
	}

	var chunks [][]byte
	for avail >= w.windowSize {
		w.src.Read(w.window, w.cursor)
		w.cursor = (w.cursor + w.windowSize) % w.src.BufferSize()
		avail -= w.windowSize

		data, err := w.encoder.Encode(w.window)
		if err != nil {
			w.logger.Warn().Err(err).Msg("dropping capture window")
			continue
		}
		chunks = append(chunks, data)
	}
	return chunks
}

// Run polls at the configured cadence and hands each full window to send,
// until ctx is cancelled.
func (w *Windower) Run(ctx context.Context, send func([]byte)) {
	ticker := time.NewTicker(w.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, chunk := range w.Poll() {
				send(chunk)
			}
		}
	}
}
