// ABOUTME: HTTP server for the agent backend
// ABOUTME: Serves chat requests, synthesized audio files, health, and metrics
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/versionone-ai/voicerelay/internal/agent"
	"github.com/versionone-ai/voicerelay/internal/config"
	"github.com/versionone-ai/voicerelay/internal/metrics"
)

// Responder generates a reply to a user message given retrieved context.
type Responder interface {
	Respond(ctx context.Context, userMessage, contextStr string) (*agent.Reply, error)
}

// ContextProvider retrieves background context for a message.
type ContextProvider interface {
	Context(ctx context.Context, message string) string
}

// Speaker converts reply text to mp3 audio.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Recognizer converts WAV speech audio to text.
type Recognizer interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Server wires the agent pipeline behind HTTP endpoints.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	responder  Responder
	contexts   ContextProvider
	speaker    Speaker
	recognizer Recognizer
	httpServer *http.Server
}

// Options collects the server's collaborators.
type Options struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Responder  Responder
	Contexts   ContextProvider // nil disables retrieval
	Speaker    Speaker
	Recognizer Recognizer
}

// New creates a server and its route table.
func New(opts Options) *Server {
	s := &Server{
		cfg:        opts.Config,
		logger:     opts.Logger.With().Str("component", "server").Logger(),
		metrics:    opts.Metrics,
		registry:   opts.Registry,
		responder:  opts.Responder,
		contexts:   opts.Contexts,
		speaker:    opts.Speaker,
		recognizer: opts.Recognizer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /audio/{file}", s.handleAudio)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /converse", s.handleConverse)
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:    opts.Config.Server.Addr,
		Handler: mux,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	LongResponse  string   `json:"long_response"`
	ShortResponse string   `json:"short_response"`
	AudioURL      string   `json:"audio_url,omitempty"`
	MediaURLs     []string `json:"media_urls"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ChatRequests.Inc()
		defer func() { s.metrics.ChatDuration.Observe(time.Since(start).Seconds()) }()
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.chatError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusOK, chatResponse{
			LongResponse:  "I didn't catch that. Could you say it again?",
			ShortResponse: "Say that again?",
			MediaURLs:     []string{},
		})
		return
	}

	var contextStr string
	if s.contexts != nil {
		contextStr = s.contexts.Context(r.Context(), req.Message)
	}

	reply, err := s.responder.Respond(r.Context(), req.Message, contextStr)
	if err != nil {
		s.logger.Error().Err(err).Msg("agent failed")
		s.chatError(w, http.StatusBadGateway, "agent unavailable")
		return
	}

	resp := chatResponse{
		LongResponse:  reply.Long,
		ShortResponse: reply.Short,
		MediaURLs:     reply.MediaURLs,
	}
	if resp.MediaURLs == nil {
		resp.MediaURLs = []string{}
	}

	// the short answer is the spoken one, the long answer is display text.
	// speech failure degrades to a text-only answer
	if name, err := s.synthesizeToFile(r.Context(), reply.Short); err != nil {
		s.logger.Warn().Err(err).Msg("speech synthesis failed, returning text only")
		if s.metrics != nil {
			s.metrics.TTSErrors.Inc()
		}
	} else {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		resp.AudioURL = fmt.Sprintf("%s://%s/audio/%s", scheme, r.Host, name)
	}

	writeJSON(w, http.StatusOK, resp)
}

// synthesizeToFile converts text to mp3 and saves it under the audio
// directory, returning the generated file name.
func (s *Server) synthesizeToFile(ctx context.Context, text string) (string, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.TTSRequests.Inc()
		defer func() { s.metrics.TTSDuration.Observe(time.Since(start).Seconds()) }()
	}

	audio, err := s.speaker.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.cfg.Server.AudioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	name := fmt.Sprintf("audio_%s.mp3", uuid.New().String())
	if err := os.WriteFile(filepath.Join(s.cfg.Server.AudioDir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return name, nil
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.cfg.Server.AudioDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chatError(w http.ResponseWriter, status int, msg string) {
	if s.metrics != nil {
		s.metrics.ChatErrors.Inc()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
