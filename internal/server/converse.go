// ABOUTME: Realtime conversation WebSocket endpoint
// ABOUTME: Receives user speech, transcribes it, and streams reply audio events
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/convai"
	"github.com/versionone-ai/voicerelay/pkg/audio"
	"github.com/versionone-ai/voicerelay/pkg/audio/decode"
	"github.com/versionone-ai/voicerelay/pkg/audio/encode"
)

// Reply audio is decoded from synthesized mp3, which ElevenLabs produces
// at 44.1 kHz. go-mp3 always emits 16-bit stereo frames.
var agentAudioFormat = audio.Format{
	Codec:      "pcm",
	SampleRate: 44100,
	Channels:   2,
	BitDepth:   16,
}

const pingInterval = 15 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// outEnvelope is the wire shape of outbound events, mirroring the
// inbound envelope the relay client parses.
type outEnvelope struct {
	Type           string                      `json:"type"`
	Audio          *convai.AudioEvent          `json:"audio_event,omitempty"`
	AgentResponse  *convai.AgentResponseEvent  `json:"agent_response_event,omitempty"`
	UserTranscript *convai.UserTranscriptEvent `json:"user_transcription_event,omitempty"`
	Ping           *convai.PingEvent           `json:"ping_event,omitempty"`
	Metadata       *convai.MetadataEvent       `json:"conversation_initiation_metadata_event,omitempty"`
}

// inboundMessage is the union of messages clients send.
type inboundMessage struct {
	UserAudioChunk string `json:"user_audio_chunk"`
	Type           string `json:"type"`
	Text           string `json:"text"`
	EventID        int    `json:"event_id"`
}

// session is one live conversation over a WebSocket.
type session struct {
	server *Server
	conn   *websocket.Conn
	logger zerolog.Logger

	captureDec *decode.PCMDecoder
	captureEnc *encode.PCMEncoder
	format     audio.Format

	idMu    sync.Mutex
	eventID int
	writeMu sync.Mutex

	pending       []float32 // accumulated user speech samples
	silentWindows int
	heardSpeech   bool
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}

	captureFormat := audio.Format{
		Codec:      "pcm",
		SampleRate: s.cfg.Converse.SampleRate,
		Channels:   s.cfg.Converse.Channels,
		BitDepth:   16,
	}
	captureDec, err := decode.NewPCM(captureFormat)
	if err != nil {
		s.logger.Error().Err(err).Msg("capture format rejected")
		return
	}
	captureEnc, err := encode.NewPCM(captureFormat)
	if err != nil {
		s.logger.Error().Err(err).Msg("capture format rejected")
		return
	}

	conversationID := uuid.New().String()
	sess := &session{
		server:     s,
		conn:       conn,
		logger:     s.logger.With().Str("conversation_id", conversationID).Logger(),
		captureDec: captureDec,
		captureEnc: captureEnc,
		format:     captureFormat,
	}
	sess.logger.Info().Msg("conversation started")

	if err := sess.send(outEnvelope{
		Type: string(convai.EventMetadata),
		Metadata: &convai.MetadataEvent{
			ConversationID: conversationID,
			SampleRate:     agentAudioFormat.SampleRate,
			Channels:       agentAudioFormat.Channels,
			BitDepth:       agentAudioFormat.BitDepth,
		},
	}); err != nil {
		sess.logger.Warn().Err(err).Msg("failed to send metadata")
		return
	}

	pingCtx, cancelPing := context.WithCancel(r.Context())
	defer cancelPing()
	go sess.pingLoop(pingCtx)

	sess.readLoop(r.Context())
	sess.logger.Info().Msg("conversation ended")
}

func (s *session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if s.server.metrics != nil {
			s.server.metrics.EventsReceived.Inc()
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn().Err(err).Msg("malformed client message, skipping")
			continue
		}

		switch {
		case msg.UserAudioChunk != "":
			s.onAudioChunk(ctx, msg.UserAudioChunk)
		case msg.Type == "user_message":
			s.respond(ctx, msg.Text)
		case msg.Type == "user_audio_end":
			s.commitUtterance(ctx)
		case msg.Type == "pong":
			// keepalive acknowledged
		default:
			s.logger.Debug().Str("type", msg.Type).Msg("ignoring unknown client message")
		}
	}
}

// onAudioChunk accumulates captured speech and commits the utterance
// after a run of silent windows.
func (s *session) onAudioChunk(ctx context.Context, payload string) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("invalid audio chunk, skipping")
		return
	}

	samples, err := s.captureDec.Decode(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("malformed audio chunk, skipping")
		return
	}
	if len(samples) == 0 {
		return
	}

	if rms(samples) < s.server.cfg.Converse.SilenceThreshold {
		s.silentWindows++
	} else {
		s.silentWindows = 0
		s.heardSpeech = true
	}
	s.pending = append(s.pending, samples...)

	if s.heardSpeech && s.silentWindows >= s.server.cfg.Converse.SilenceWindows {
		s.commitUtterance(ctx)
	}
}

// commitUtterance transcribes the accumulated speech and answers it.
func (s *session) commitUtterance(ctx context.Context) {
	pending := s.pending
	s.pending = nil
	s.silentWindows = 0
	s.heardSpeech = false

	if len(pending) == 0 {
		return
	}

	pcm, err := s.captureEnc.Encode(pending)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encoding utterance failed, dropping")
		return
	}
	wav := encode.WrapWAV(pcm, s.format)

	if s.server.metrics != nil {
		s.server.metrics.Transcriptions.Inc()
	}
	text, err := s.server.recognizer.Transcribe(ctx, wav)
	if err != nil {
		s.logger.Warn().Err(err).Msg("transcription failed, dropping utterance")
		return
	}
	if text == "" {
		return
	}

	if err := s.send(outEnvelope{
		Type:           string(convai.EventUserTranscript),
		UserTranscript: &convai.UserTranscriptEvent{UserTranscript: text},
	}); err != nil {
		return
	}

	s.respond(ctx, text)
}

// respond runs the agent pipeline and streams the reply as text and
// sequential audio events.
func (s *session) respond(ctx context.Context, text string) {
	if text == "" {
		return
	}

	var contextStr string
	if s.server.contexts != nil {
		contextStr = s.server.contexts.Context(ctx, text)
	}

	reply, err := s.server.responder.Respond(ctx, text, contextStr)
	if err != nil {
		s.logger.Error().Err(err).Msg("agent failed")
		return
	}

	if err := s.send(outEnvelope{
		Type:          string(convai.EventAgentResponse),
		AgentResponse: &convai.AgentResponseEvent{AgentResponse: reply.Long},
	}); err != nil {
		return
	}

	// the long answer is display text; speech uses the short answer
	s.streamSpeech(ctx, reply.Short)
}

// streamSpeech synthesizes the reply and sends it as fixed-duration
// PCM audio events in order.
func (s *session) streamSpeech(ctx context.Context, text string) {
	mp3Data, err := s.server.speaker.Synthesize(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("speech synthesis failed, reply is text only")
		if s.server.metrics != nil {
			s.server.metrics.TTSErrors.Inc()
		}
		return
	}

	dec, err := decode.NewMP3(audio.Format{Codec: "mp3"})
	if err != nil {
		s.logger.Error().Err(err).Msg("mp3 decoder unavailable")
		return
	}
	samples, err := dec.Decode(mp3Data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("synthesized audio undecodable, reply is text only")
		return
	}
	if got := dec.Format().SampleRate; got != agentAudioFormat.SampleRate {
		s.logger.Warn().
			Int("got", got).
			Int("advertised", agentAudioFormat.SampleRate).
			Msg("synthesized rate differs from advertised format")
	}

	enc, err := encode.NewPCM(agentAudioFormat)
	if err != nil {
		s.logger.Error().Err(err).Msg("agent audio format rejected")
		return
	}
	pcm, err := enc.Encode(samples)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encoding reply audio failed")
		return
	}

	chunkBytes := agentAudioFormat.SampleRate * agentAudioFormat.BytesPerFrame() *
		s.server.cfg.Converse.ChunkMillis / 1000
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		err := s.send(outEnvelope{
			Type: string(convai.EventAudio),
			Audio: &convai.AudioEvent{
				AudioBase64: base64.StdEncoding.EncodeToString(pcm[off:end]),
				EventID:     s.nextEventID(),
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("audio send failed")
			return
		}
	}
}

func (s *session) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.send(outEnvelope{
				Type: string(convai.EventPing),
				Ping: &convai.PingEvent{EventID: s.nextEventID()},
			})
			if err != nil {
				return
			}
		}
	}
}

func (s *session) nextEventID() int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.eventID++
	return s.eventID
}

func (s *session) send(env outEnvelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s event: %w", env.Type, err)
	}
	if s.server.metrics != nil {
		s.server.metrics.EventsSent.Inc()
	}
	return nil
}

// rms computes the root mean square level of a sample window.
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
