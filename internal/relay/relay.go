// ABOUTME: Sequential audio chunk playback queue
// ABOUTME: Drains received PCM chunks one at a time with no overlap or reordering
package relay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/metrics"
	"github.com/versionone-ai/voicerelay/pkg/audio"
	"github.com/versionone-ai/voicerelay/pkg/audio/decode"
	"github.com/versionone-ai/voicerelay/pkg/audio/output"
)

// Relay buffers synthesized audio chunks arriving from the network and
// plays them back-to-back. Chunks are raw 16-bit little-endian PCM in the
// format agreed with the remote service; arrival order is playback order.
//
// Enqueue and the drain loop run in different goroutines. The hand-off is
// an unbounded FIFO held by a pump goroutine, so Enqueue never blocks on
// playback and never drops a chunk.
type Relay struct {
	format  audio.Format
	out     output.Output
	decoder *decode.PCMDecoder
	logger  zerolog.Logger
	metrics *metrics.Metrics

	in    chan []byte
	next  chan []byte
	clear chan struct{}

	enqueued atomic.Int64
	played   atomic.Int64
	skipped  atomic.Int64
	depth    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Stats is a snapshot of relay counters.
type Stats struct {
	Enqueued   int64
	Played     int64
	Skipped    int64
	QueueDepth int
}

// New creates a relay playing chunks of the given format through out.
// m may be nil when metrics are not collected.
func New(format audio.Format, out output.Output, logger zerolog.Logger, m *metrics.Metrics) (*Relay, error) {
	dec, err := decode.NewPCM(format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Relay{
		format:  format,
		out:     out,
		decoder: dec,
		logger:  logger.With().Str("component", "relay").Logger(),
		metrics: m,
		in:      make(chan []byte),
		next:    make(chan []byte),
		clear:   make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the queue pump and the drain loop.
func (r *Relay) Start() {
	go r.pump()
	go r.drain()
}

// Enqueue appends a received chunk to the tail of the playback queue.
// It is safe to call from the network receive goroutine and returns
// immediately regardless of playback progress.
func (r *Relay) Enqueue(chunk []byte) {
	select {
	case r.in <- chunk:
		r.enqueued.Add(1)
		if r.metrics != nil {
			r.metrics.ChunksEnqueued.Inc()
		}
	case <-r.ctx.Done():
	}
}

// Clear drops all queued chunks. The chunk currently playing, if any,
// finishes; disconnect clears the queue rather than cutting audio off.
func (r *Relay) Clear() {
	select {
	case r.clear <- struct{}{}:
	case <-r.ctx.Done():
	}
}

// Stop cancels the pump and drain loops. The current chunk's playback
// wait is abandoned.
func (r *Relay) Stop() {
	r.cancel()
	<-r.done
}

// Stats returns a snapshot of relay counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Enqueued:   r.enqueued.Load(),
		Played:     r.played.Load(),
		Skipped:    r.skipped.Load(),
		QueueDepth: int(r.depth.Load()),
	}
}

// pump owns the backlog slice, moving chunks from the receive side to the
// drain side in arrival order. It is the only goroutine touching backlog,
// so no locking is needed.
func (r *Relay) pump() {
	var backlog [][]byte

	setDepth := func(n int) {
		r.depth.Store(int64(n))
		if r.metrics != nil {
			r.metrics.QueueDepth.Set(float64(n))
		}
	}

	for {
		var next chan []byte
		var head []byte
		if len(backlog) > 0 {
			next = r.next
			head = backlog[0]
		}

		select {
		case <-r.ctx.Done():
			return

		case chunk := <-r.in:
			backlog = append(backlog, chunk)
			setDepth(len(backlog))

		case next <- head:
			backlog = backlog[1:]
			setDepth(len(backlog))

		case <-r.clear:
			if len(backlog) > 0 {
				r.logger.Info().Int("dropped", len(backlog)).Msg("playback queue cleared")
			}
			backlog = nil
			setDepth(0)
		}
	}
}

// drain is the single consumer: it idles on the next channel when the
// queue is empty and plays exactly one chunk at a time.
func (r *Relay) drain() {
	defer close(r.done)

	for {
		select {
		case <-r.ctx.Done():
			return
		case chunk := <-r.next:
			r.play(chunk)
		}
	}
}

// play renders one chunk and waits out its full duration before returning.
// Empty or malformed chunks are skipped; a failing audio backend is logged
// and the loop moves on. Neither stalls the session.
func (r *Relay) play(chunk []byte) {
	if len(chunk) == 0 {
		r.logger.Warn().Msg("skipping empty audio chunk")
		r.skip()
		return
	}

	samples, err := r.decoder.Decode(chunk)
	if err != nil {
		r.logger.Warn().Err(err).Int("bytes", len(chunk)).Msg("skipping malformed audio chunk")
		r.skip()
		return
	}

	duration := r.format.Duration(len(chunk))
	start := time.Now()

	r.played.Add(1)
	if r.metrics != nil {
		r.metrics.ChunksPlayed.Inc()
		r.metrics.ChunkDuration.Observe(duration.Seconds())
	}

	if err := r.out.Write(samples); err != nil {
		r.logger.Error().Err(err).Msg("playback failed, continuing with next chunk")
		return
	}

	// The sink may buffer ahead of the device; hold here until the
	// chunk's own duration has elapsed so the next one never overlaps.
	if remaining := duration - time.Since(start); remaining > 0 {
		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			timer.Stop()
		}
	}
}

func (r *Relay) skip() {
	r.skipped.Add(1)
	if r.metrics != nil {
		r.metrics.ChunksSkipped.Inc()
	}
}
