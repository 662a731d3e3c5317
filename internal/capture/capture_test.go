// ABOUTME: Tests for capture windowing
// ABOUTME: Verifies window extraction, partial accumulation, and wraparound
package capture

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// fakeRing simulates a device circular buffer with a controllable write cursor.
type fakeRing struct {
	ring []float32
	pos  int
}

func newFakeRing(size int) *fakeRing {
	return &fakeRing{ring: make([]float32, size)}
}

// feed appends samples at the write cursor, wrapping like a real device.
func (f *fakeRing) feed(samples []float32) {
	for _, s := range samples {
		f.ring[f.pos] = s
		f.pos = (f.pos + 1) % len(f.ring)
	}
}

func (f *fakeRing) Position() int   { return f.pos }
func (f *fakeRing) BufferSize() int { return len(f.ring) }

func (f *fakeRing) Read(dst []float32, from int) {
	for i := range dst {
		dst[i] = f.ring[(from+i)%len(f.ring)]
	}
}

func testConfig() Config {
	return Config{
		Format:        audio.Format{Codec: "pcm", SampleRate: 100, Channels: 1, BitDepth: 16},
		WindowSeconds: 0.1, // 10 samples per window
		Cadence:       time.Millisecond,
	}
}

// ramp produces n samples with values marker, marker+1, ... scaled into [-1, 1].
func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start+i) / audio.MaxInt16
	}
	return out
}

func decodeMarkers(t *testing.T, chunk []byte) []int {
	t.Helper()
	out := make([]int, len(chunk)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(chunk[i*2:])))
	}
	return out
}

func TestPollEmitsNothingUntilWindowFull(t *testing.T) {
	ring := newFakeRing(50)
	w, err := NewWindower(ring, testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWindower failed: %v", err)
	}

	ring.feed(ramp(1, 9)) // one sample short of a window
	if chunks := w.Poll(); chunks != nil {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}

	ring.feed(ramp(10, 1))
	chunks := w.Poll()
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := decodeMarkers(t, chunks[0]); got[0] != 1 || got[9] != 10 {
		t.Errorf("unexpected window contents: %v", got)
	}
}

func TestPollEmitsMultipleWindows(t *testing.T) {
	ring := newFakeRing(50)
	w, _ := NewWindower(ring, testConfig(), zerolog.Nop())

	ring.feed(ramp(1, 25)) // two full windows plus half of a third

	chunks := w.Poll()
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	first := decodeMarkers(t, chunks[0])
	second := decodeMarkers(t, chunks[1])
	if first[0] != 1 || second[0] != 11 {
		t.Errorf("windows out of order: first starts %d, second starts %d", first[0], second[0])
	}

	// The remaining 5 samples stay pending.
	ring.feed(ramp(26, 5))
	chunks = w.Poll()
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk after topping up, got %d", len(chunks))
	}
	if got := decodeMarkers(t, chunks[0]); got[0] != 21 || got[9] != 30 {
		t.Errorf("third window lost samples: %v", got)
	}
}

func TestWraparoundLosesNoSamples(t *testing.T) {
	// Ring of 15 with windows of 10 forces the second window to span the wrap.
	ring := newFakeRing(15)
	w, _ := NewWindower(ring, testConfig(), zerolog.Nop())

	ring.feed(ramp(1, 10))
	if got := len(w.Poll()); got != 1 {
		t.Fatalf("expected first window, got %d chunks", got)
	}

	// Next 10 samples wrap: positions 10..14 then 0..4.
	ring.feed(ramp(11, 10))
	chunks := w.Poll()
	if len(chunks) != 1 {
		t.Fatalf("expected wrapped window, got %d chunks", len(chunks))
	}

	got := decodeMarkers(t, chunks[0])
	for i, v := range got {
		if v != 11+i {
			t.Fatalf("wrapped window dropped samples: index %d has %d, want %d (full: %v)",
				i, v, 11+i, got)
		}
	}
}

func TestWindowLargerThanRingRejected(t *testing.T) {
	ring := newFakeRing(5)
	if _, err := NewWindower(ring, testConfig(), zerolog.Nop()); err == nil {
		t.Error("expected error for window exceeding ring capacity")
	}
}

func TestRunDeliversWindows(t *testing.T) {
	ring := newFakeRing(50)
	w, _ := NewWindower(ring, testConfig(), zerolog.Nop())

	ring.feed(ramp(1, 20))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	var got [][]byte
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func(chunk []byte) {
			mu.Lock()
			got = append(got, chunk)
			if len(got) == 2 {
				cancel()
			}
			mu.Unlock()
		})
		close(done)
	}()

	<-done
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 windows delivered, got %d", len(got))
	}
}
