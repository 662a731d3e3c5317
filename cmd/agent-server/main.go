// ABOUTME: Entry point for the agent server
// ABOUTME: Loads configuration, wires the pipeline, and serves until shutdown
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/agent"
	"github.com/versionone-ai/voicerelay/internal/config"
	"github.com/versionone-ai/voicerelay/internal/discovery"
	"github.com/versionone-ai/voicerelay/internal/memory"
	"github.com/versionone-ai/voicerelay/internal/metrics"
	"github.com/versionone-ai/voicerelay/internal/server"
	"github.com/versionone-ai/voicerelay/internal/version"
	"github.com/versionone-ai/voicerelay/internal/voice"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	advertise  = flag.Bool("advertise", true, "Advertise the server via mDNS")
)

func main() {
	flag.Parse()
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Info().
		Str("version", version.Version).
		Str("addr", cfg.Server.Addr).
		Msg("starting agent server")

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var contexts server.ContextProvider
	if cfg.Memory.Enabled {
		contexts = memory.New(memory.Config{
			APIKey:     cfg.Memory.APIKey,
			EmbedURL:   cfg.Memory.EmbedURL,
			IndexHost:  cfg.Memory.IndexHost,
			Namespace:  cfg.Memory.Namespace,
			EmbedModel: cfg.Memory.EmbedModel,
			TopK:       cfg.Memory.TopK,
		}, logger)
	} else {
		logger.Info().Msg("retrieval memory disabled")
	}

	responder := agent.New(agent.Config{
		APIKey:      cfg.Agent.OpenAIAPIKey,
		Model:       cfg.Agent.Model,
		Temperature: cfg.Agent.Temperature,
		AgentName:   cfg.Agent.AgentName,
		PersonaName: cfg.Agent.PersonaName,
	}, logger)

	speaker := voice.New(voice.Config{
		APIKey:     cfg.Voice.APIKey,
		VoiceID:    cfg.Voice.VoiceID,
		ModelID:    cfg.Voice.ModelID,
		Stability:  cfg.Voice.Stability,
		Similarity: cfg.Voice.Similarity,
	}, logger)

	recognizer := agent.NewTranscriber(cfg.Agent.OpenAIAPIKey, "", "", logger)

	srv := server.New(server.Options{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Registry:   registry,
		Responder:  responder,
		Contexts:   contexts,
		Speaker:    speaker,
		Recognizer: recognizer,
	})

	if *advertise {
		if port, err := addrPort(cfg.Server.Addr); err != nil {
			logger.Warn().Err(err).Msg("cannot advertise, address has no port")
		} else {
			disc := discovery.NewManager(discovery.Config{
				ServiceName: version.Product,
				Port:        port,
			}, logger)
			if err := disc.Advertise(); err != nil {
				logger.Warn().Err(err).Msg("mdns advertisement failed")
			}
			defer disc.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server failed")
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("agent server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func addrPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
