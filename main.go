// ABOUTME: Entry point for the voice relay client
// ABOUTME: Parses CLI flags, finds an agent server, and runs the session
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/discovery"
	"github.com/versionone-ai/voicerelay/internal/ui"
	"github.com/versionone-ai/voicerelay/internal/version"
	"github.com/versionone-ai/voicerelay/pkg/audio"
	"github.com/versionone-ai/voicerelay/pkg/voicerelay"
)

var (
	serverURL  = flag.String("server", "", "Agent server WebSocket URL (skip mDNS)")
	name       = flag.String("name", "", "Relay friendly name (default: hostname-voicerelay)")
	sampleRate = flag.Int("sample-rate", 16000, "Microphone sample rate in Hz")
	windowSec  = flag.Float64("window", 0.25, "Capture window length in seconds")
	noCapture  = flag.Bool("no-capture", false, "Disable microphone capture")
	logFile    = flag.String("log-file", "voicerelay.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()
	godotenv.Load()

	useTUI := !(*noTUI || *streamLogs)

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	var logWriter io.Writer = f
	if !useTUI {
		// streaming logs mode: pretty console output plus the file
		logWriter = io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stdout}, f)
	}
	logger := zerolog.New(logWriter).With().Timestamp().Logger()

	relayName := *name
	if relayName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		relayName = fmt.Sprintf("%s-voicerelay", hostname)
	}

	logger.Info().
		Str("name", relayName).
		Str("version", version.Version).
		Msg("starting voice relay")

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start TUI")
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg tea.Msg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Find a server via mDNS unless one was given
	address := *serverURL
	if address == "" {
		logger.Info().Msg("browsing for agent servers")
		disc := discovery.NewManager(discovery.Config{
			ServiceName: relayName,
		}, logger)
		disc.Browse()

		select {
		case server := <-disc.Servers():
			address = fmt.Sprintf("ws://%s:%d/converse", server.Host, server.Port)
			logger.Info().Str("url", address).Msg("discovered agent server")
		case <-time.After(10 * time.Second):
			logger.Fatal().Msg("no agent server found after 10 seconds")
		}
		disc.Stop()
	}

	client, err := voicerelay.New(voicerelay.Config{
		ServerURL:      address,
		Name:           relayName,
		CaptureFormat:  captureFormat(*sampleRate),
		WindowSeconds:  *windowSec,
		DisableCapture: *noCapture,
		Logger:         logger,
		OnTranscript: func(speaker, text string) {
			logger.Info().Str("speaker", speaker).Str("text", text).Msg("transcript")
			label := "Agent"
			if speaker == "user" {
				label = "You"
			}
			updateTUI(ui.TranscriptMsg{Speaker: label, Text: text})
		},
		OnStateChange: func(state voicerelay.State) {
			connected := state.Connected
			listening := state.Listening
			updateTUI(ui.StatusMsg{
				Connected:  &connected,
				ServerName: address,
				Listening:  &listening,
				SampleRate: state.SampleRate,
				Channels:   state.Channels,
				BitDepth:   state.BitDepth,
			})
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("relay error")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}

	if err := client.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("connection failed")
	}

	logger.Info().Str("url", address).Msg("connected to agent server")

	if volumeCtrl != nil {
		go handleVolumeControl(client, volumeCtrl, logger)
	}
	if tuiProg != nil {
		go statsUpdateLoop(client, updateTUI)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if volumeCtrl != nil {
		select {
		case <-volumeCtrl.Quit:
			logger.Info().Msg("quit requested from TUI")
		case <-sigChan:
			logger.Info().Msg("shutdown signal received")
		}
	} else {
		<-sigChan
		logger.Info().Msg("shutdown signal received")
	}

	if err := client.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing client")
	}

	logger.Info().Msg("voice relay stopped")
}

// handleVolumeControl processes volume changes from the TUI
func handleVolumeControl(client *voicerelay.Client, volumeCtrl *ui.VolumeControl, logger zerolog.Logger) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			logger.Info().Int("volume", vol.Volume).Bool("muted", vol.Muted).Msg("volume change")
			client.SetVolume(vol.Volume)
			client.Mute(vol.Muted)
		case <-volumeCtrl.Quit:
			return
		}
	}
}

// statsUpdateLoop periodically updates the TUI with playback statistics
func statsUpdateLoop(client *voicerelay.Client, updateTUI func(tea.Msg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		stats := client.Stats()
		updateTUI(ui.StatusMsg{
			Enqueued:   stats.Enqueued,
			Played:     stats.Played,
			Skipped:    stats.Skipped,
			QueueDepth: int64(stats.QueueDepth),
		})
	}
}

func captureFormat(sampleRate int) audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   16,
	}
}
