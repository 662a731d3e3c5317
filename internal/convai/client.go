// ABOUTME: WebSocket client for the conversational voice service
// ABOUTME: Handles connection state, event routing, and audio chunk relay
package convai

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/pkg/audio"
)

// State is the connection lifecycle of the client.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config holds client configuration.
type Config struct {
	// URL is the WebSocket endpoint of the conversational voice service
	URL string

	// Format is the PCM format agreed with the service for both directions
	Format audio.Format

	DialTimeout time.Duration
}

// AudioChunk is one decoded inbound audio payload.
type AudioChunk struct {
	Data    []byte
	EventID int
}

// Client relays audio to and from the conversational voice service.
// Inbound events are routed onto typed channels; the caller drains them.
type Client struct {
	config Config
	logger zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	state  atomic.Int32

	// Inbound event channels
	AudioChunks     chan AudioChunk
	AgentText       chan string
	UserTranscripts chan string
	Interruptions   chan struct{}
	Metadata        chan MetadataEvent

	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{}
}

// NewClient creates a client for the given service endpoint.
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.DialTimeout <= 0 {
		config.DialTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:          config,
		logger:          logger.With().Str("component", "convai").Logger(),
		AudioChunks:     make(chan AudioChunk, 100),
		AgentText:       make(chan string, 10),
		UserTranscripts: make(chan string, 10),
		Interruptions:   make(chan struct{}, 1),
		Metadata:        make(chan MetadataEvent, 1),
		ctx:             ctx,
		cancel:          cancel,
		closed:          make(chan struct{}),
	}
}

// Connect dials the service and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(int32(Connecting))
	c.logger.Info().Str("url", c.config.URL).Msg("connecting")

	dialer := websocket.Dialer{HandshakeTimeout: c.config.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		c.state.Store(int32(Disconnected))
		return fmt.Errorf("dial failed: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.state.Store(int32(Connected))

	go c.readLoop(conn)

	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Done is closed when the read loop has exited, whether by Close or by a
// transport error.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// SendAudio transmits one captured PCM window.
func (c *Client) SendAudio(pcm []byte) error {
	return c.sendJSON(userAudioChunk{
		UserAudioChunk: base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendAudioEnd signals that the current utterance is complete.
func (c *Client) SendAudioEnd() error {
	return c.sendJSON(userAudioEnd{Type: "user_audio_end"})
}

// SendText transmits a typed user message.
func (c *Client) SendText(text string) error {
	return c.sendJSON(userMessage{Type: "user_message", Text: text})
}

func (c *Client) sendJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.State() != Connected || c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(v)
}

// readLoop reads and routes incoming events until the connection drops.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.state.Store(int32(Disconnected))
		close(c.closed)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn().Err(err).Msg("read error, disconnecting")
			return
		}

		event, err := ParseEvent(data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed event")
			continue
		}
		c.route(event)
	}
}

// route dispatches one event to its channel. Audio is never dropped;
// lower-priority channels fall through when the consumer lags.
func (c *Client) route(event Event) {
	switch event.Type {
	case EventAudio:
		data, err := event.Audio.DecodePayload()
		if err != nil {
			c.logger.Warn().Err(err).Int("eventID", event.Audio.EventID).
				Msg("dropping undecodable audio event")
			return
		}
		select {
		case c.AudioChunks <- AudioChunk{Data: data, EventID: event.Audio.EventID}:
		case <-c.ctx.Done():
		}

	case EventAgentResponse:
		select {
		case c.AgentText <- event.AgentResponse.AgentResponse:
		default:
		}

	case EventUserTranscript:
		select {
		case c.UserTranscripts <- event.UserTranscript.UserTranscript:
		default:
		}

	case EventInterruption:
		select {
		case c.Interruptions <- struct{}{}:
		default:
		}

	case EventPing:
		if err := c.sendJSON(pong{Type: "pong", EventID: event.Ping.EventID}); err != nil {
			c.logger.Warn().Err(err).Msg("failed to answer ping")
		}

	case EventMetadata:
		c.logger.Info().Str("conversationID", event.Metadata.ConversationID).
			Int("sampleRate", event.Metadata.SampleRate).
			Msg("conversation started")
		select {
		case c.Metadata <- *event.Metadata:
		default:
		}

	case EventUnknown:
		c.logger.Debug().Str("type", event.RawType).Msg("ignoring unknown event type")
	}
}

// Close tears down the connection and stops the read loop.
func (c *Client) Close() {
	c.cancel()

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state.Store(int32(Disconnected))
}
