// Package api implements the HTTP surface: the chat endpoint, the
// progress event stream, and conversation management.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/weissjeffm/mybot/internal/agent"
	"github.com/weissjeffm/mybot/internal/buildinfo"
	"github.com/weissjeffm/mybot/internal/events"
	"github.com/weissjeffm/mybot/internal/memory"
)

// writeJSON encodes v as JSON to w, logging failures at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg}, logger)
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	loop    *agent.Loop
	store   *memory.Store
	bus     *events.Bus
	botName string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates an API server. store may be nil to run stateless;
// bus may be nil to disable the event stream.
func NewServer(address string, port int, loop *agent.Loop, store *memory.Store, bus *events.Bus, botName string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		port:    port,
		loop:    loop,
		store:   store,
		bus:     bus,
		botName: botName,
		logger:  logger,
	}
}

// Handler builds the route table. Exposed separately from Start so
// tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleConversationGet)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleConversationClear)

	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests and blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: chat turns can legitimately run for
		// minutes and the event stream is long-lived.
	}

	s.logger.Info("starting API server", "address", s.address, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    s.botName,
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "healthy"}
	if s.store != nil {
		if stats, err := s.store.Stats(r.Context()); err == nil {
			resp["memory"] = stats
		}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.logger)
}
