// ABOUTME: Prometheus metrics for the voice relay and agent backend
// ABOUTME: Registers counters, gauges and histograms via promauto
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice relay.
type Metrics struct {
	// Playback queue metrics
	ChunksEnqueued prometheus.Counter
	ChunksPlayed   prometheus.Counter
	ChunksSkipped  prometheus.Counter
	QueueDepth     prometheus.Gauge
	ChunkDuration  prometheus.Histogram

	// Conversation backend metrics
	ChatRequests  prometheus.Counter
	ChatErrors    prometheus.Counter
	ChatDuration  prometheus.Histogram
	TTSRequests   prometheus.Counter
	TTSErrors     prometheus.Counter
	TTSDuration   prometheus.Histogram
	Transcriptions prometheus.Counter

	// WebSocket session metrics
	ActiveSessions prometheus.Gauge
	EventsSent     prometheus.Counter
	EventsReceived prometheus.Counter
}

// New creates and registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChunksEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chunks_enqueued_total",
			Help: "Total number of audio chunks accepted into the playback queue",
		}),
		ChunksPlayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chunks_played_total",
			Help: "Total number of audio chunks played to completion",
		}),
		ChunksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chunks_skipped_total",
			Help: "Total number of empty or malformed chunks dropped",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicerelay_queue_depth",
			Help: "Current number of chunks waiting in the playback queue",
		}),
		ChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicerelay_chunk_duration_seconds",
			Help:    "Playback duration of individual audio chunks",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		ChatRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chat_requests_total",
			Help: "Total number of chat requests handled",
		}),
		ChatErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chat_errors_total",
			Help: "Total number of failed chat requests",
		}),
		ChatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicerelay_chat_duration_seconds",
			Help:    "End-to-end latency of chat requests",
			Buckets: prometheus.DefBuckets,
		}),
		TTSRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_tts_requests_total",
			Help: "Total number of TTS synthesis requests",
		}),
		TTSErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_tts_errors_total",
			Help: "Total number of failed TTS synthesis requests",
		}),
		TTSDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicerelay_tts_duration_seconds",
			Help:    "Latency of TTS synthesis requests",
			Buckets: prometheus.DefBuckets,
		}),
		Transcriptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_transcriptions_total",
			Help: "Total number of audio transcription requests",
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicerelay_active_sessions",
			Help: "Current number of open conversation WebSocket sessions",
		}),
		EventsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_events_sent_total",
			Help: "Total number of WebSocket events sent to clients",
		}),
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_events_received_total",
			Help: "Total number of WebSocket events received from clients",
		}),
	}
}
