// ABOUTME: High-level client API for the voice relay
// ABOUTME: Wires the conversation socket, playback relay, output, and capture
package voicerelay

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/capture"
	"github.com/versionone-ai/voicerelay/internal/convai"
	"github.com/versionone-ai/voicerelay/internal/metrics"
	"github.com/versionone-ai/voicerelay/internal/relay"
	"github.com/versionone-ai/voicerelay/internal/version"
	"github.com/versionone-ai/voicerelay/pkg/audio"
	"github.com/versionone-ai/voicerelay/pkg/audio/output"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the conversation WebSocket endpoint
	ServerURL string

	// Name is the display name for this relay
	Name string

	// Volume is the initial volume (0-100)
	Volume int

	// Format is the expected playback format; the server's metadata
	// event overrides it before the first chunk plays
	Format audio.Format

	// CaptureFormat is the microphone format sent to the server
	CaptureFormat audio.Format

	// WindowSeconds is the capture window length
	WindowSeconds float64

	// DisableCapture skips microphone setup
	DisableCapture bool

	// Output overrides the audio sink; nil uses the system device
	Output output.Output

	// Metrics may be nil when metrics are not collected
	Metrics *metrics.Metrics

	Logger zerolog.Logger

	// OnTranscript is called with each conversation line
	OnTranscript func(speaker, text string)

	// OnStateChange is called when the connection or format changes
	OnStateChange func(State)

	// OnError is called when errors occur
	OnError func(error)
}

// State describes the current client state
type State struct {
	Connected  bool
	ServerName string
	Listening  bool
	SampleRate int
	Channels   int
	BitDepth   int
}

// Stats is a snapshot of playback statistics
type Stats = relay.Stats

// Client plays agent speech as it streams in and forwards captured
// microphone audio to the server.
type Client struct {
	config Config
	logger zerolog.Logger

	conv *convai.Client
	out  output.Output

	mu    sync.Mutex
	queue *relay.Relay
	state State

	mic      *capture.Mic
	windower *capture.Windower

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a client with the given configuration
func New(config Config) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.Name == "" {
		config.Name = version.Product
	}
	if config.Format.SampleRate == 0 {
		config.Format = audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}
	}
	if config.CaptureFormat.SampleRate == 0 {
		config.CaptureFormat = audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16}
	}
	if config.WindowSeconds == 0 {
		config.WindowSeconds = 0.25
	}

	out := config.Output
	if out == nil {
		out = output.NewOto(config.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config: config,
		logger: config.Logger.With().Str("component", "voicerelay").Logger(),
		out:    out,
		ctx:    ctx,
		cancel: cancel,
		state:  State{ServerName: config.ServerURL},
	}

	c.conv = convai.NewClient(convai.Config{
		URL:    config.ServerURL,
		Format: config.CaptureFormat,
	}, config.Logger)

	return c, nil
}

// Connect dials the server and starts the playback and capture pipelines
func (c *Client) Connect() error {
	if err := c.conv.Connect(c.ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Connected = true
	c.mu.Unlock()
	c.notifyState()

	go c.handleEvents()

	if !c.config.DisableCapture {
		if err := c.startCapture(); err != nil {
			c.logger.Warn().Err(err).Msg("microphone unavailable, playback only")
		}
	}

	return nil
}

// startCapture opens the microphone and streams windows to the server
func (c *Client) startCapture() error {
	mic, err := capture.NewMic(c.config.CaptureFormat, 2)
	if err != nil {
		return err
	}

	windower, err := capture.NewWindower(mic, capture.Config{
		Format:        c.config.CaptureFormat,
		WindowSeconds: c.config.WindowSeconds,
	}, c.config.Logger)
	if err != nil {
		mic.Close()
		return err
	}

	c.mic = mic
	c.windower = windower

	go windower.Run(c.ctx, func(window []byte) {
		if err := c.conv.SendAudio(window); err != nil {
			c.logger.Warn().Err(err).Msg("failed to send captured audio")
		}
	})

	c.mu.Lock()
	c.state.Listening = true
	c.mu.Unlock()
	c.notifyState()

	return nil
}

// handleEvents drains the conversation channels and feeds playback
func (c *Client) handleEvents() {
	for {
		select {
		case <-c.ctx.Done():
			return

		case meta := <-c.conv.Metadata:
			format := audio.Format{
				Codec:      "pcm",
				SampleRate: meta.SampleRate,
				Channels:   meta.Channels,
				BitDepth:   meta.BitDepth,
			}
			if err := c.startPlayback(format); err != nil {
				c.notifyError(fmt.Errorf("playback setup failed: %w", err))
			}

		case chunk := <-c.conv.AudioChunks:
			c.mu.Lock()
			queue := c.queue
			c.mu.Unlock()
			if queue == nil {
				// metadata has not arrived; fall back to the configured format
				if err := c.startPlayback(c.config.Format); err != nil {
					c.notifyError(fmt.Errorf("playback setup failed: %w", err))
					continue
				}
				c.mu.Lock()
				queue = c.queue
				c.mu.Unlock()
			}
			queue.Enqueue(chunk.Data)

		case text := <-c.conv.AgentText:
			if c.config.OnTranscript != nil {
				c.config.OnTranscript("agent", text)
			}

		case text := <-c.conv.UserTranscripts:
			if c.config.OnTranscript != nil {
				c.config.OnTranscript("user", text)
			}

		case <-c.conv.Interruptions:
			c.mu.Lock()
			queue := c.queue
			c.mu.Unlock()
			if queue != nil {
				queue.Clear()
			}

		case <-c.conv.Done():
			c.mu.Lock()
			queue := c.queue
			c.state.Connected = false
			c.mu.Unlock()
			if queue != nil {
				queue.Clear()
			}
			c.notifyState()
			return
		}
	}
}

// startPlayback opens the output and starts the relay for the format
func (c *Client) startPlayback(format audio.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue != nil {
		// playback already started, most likely from an early audio chunk
		// before metadata arrived; the output cannot be reopened mid-stream
		if format.SampleRate != c.state.SampleRate || format.Channels != c.state.Channels {
			c.config.Logger.Warn().
				Int("playing_rate", c.state.SampleRate).
				Int("playing_channels", c.state.Channels).
				Int("announced_rate", format.SampleRate).
				Int("announced_channels", format.Channels).
				Msg("server announced a format different from the one playing")
		}
		return nil
	}

	if err := c.out.Open(format.SampleRate, format.Channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	if o, ok := c.out.(*output.Oto); ok {
		o.SetVolume(c.config.Volume)
	}

	queue, err := relay.New(format, c.out, c.config.Logger, c.config.Metrics)
	if err != nil {
		return err
	}
	queue.Start()
	c.queue = queue

	c.state.SampleRate = format.SampleRate
	c.state.Channels = format.Channels
	c.state.BitDepth = format.BitDepth

	go func() {
		c.notifyState()
	}()
	return nil
}

// SendText sends a typed message to the agent
func (c *Client) SendText(text string) error {
	return c.conv.SendText(text)
}

// SetVolume sets playback volume (0-100)
func (c *Client) SetVolume(volume int) {
	if o, ok := c.out.(*output.Oto); ok {
		o.SetVolume(volume)
	}
}

// Mute mutes or unmutes playback
func (c *Client) Mute(muted bool) {
	if o, ok := c.out.(*output.Oto); ok {
		o.SetMuted(muted)
	}
}

// Status returns the current state
func (c *Client) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns playback statistics
func (c *Client) Stats() Stats {
	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()
	if queue == nil {
		return Stats{}
	}
	return queue.Stats()
}

// Close shuts down the client and all pipelines
func (c *Client) Close() error {
	c.cancel()
	c.conv.Close()

	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()
	if queue != nil {
		queue.Stop()
	}

	if c.mic != nil {
		c.mic.Close()
	}
	return c.out.Close()
}

func (c *Client) notifyState() {
	if c.config.OnStateChange == nil {
		return
	}
	c.config.OnStateChange(c.Status())
}

func (c *Client) notifyError(err error) {
	c.logger.Error().Err(err).Msg("client error")
	if c.config.OnError != nil {
		c.config.OnError(err)
	}
}
