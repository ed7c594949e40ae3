package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reasonalabs/reasona"
	"github.com/reasonalabs/reasona/agent"
	"github.com/reasonalabs/reasona/logging"
)

// Options configure a Server.
type Options struct {
	// Addr is the listen address, e.g. "0.0.0.0:8000".
	Addr string

	// Logger used for request and lifecycle events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server serves a single Conductor agent over HTTP.
type Server struct {
	conductor *agent.Conductor
	addr      string
	logger    logging.Logger
	startedAt time.Time
}

// New creates a Server for the given agent.
func New(c *agent.Conductor, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:   "0.0.0.0:8000",
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		conductor: c,
		addr:      opts.Addr,
		logger:    opts.Logger,
		startedAt: time.Now(),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/agent", s.handleAgentInfo)
	mux.HandleFunc("GET /.well-known/agent-card.json", s.handleAgentCard)
	mux.HandleFunc("POST /v1/think", s.handleThink)
	mux.HandleFunc("POST /v1/chat", s.handleThink)
	mux.HandleFunc("POST /v1/reset", s.handleReset)
	mux.HandleFunc("GET /v1/tools", s.handleTools)

	return s.withCORS(mux)
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("server.start", "addr", s.addr, "agent", s.conductor.Name())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type thinkRequest struct {
	Input   string         `json:"input"`
	Stream  bool           `json:"stream"`
	Context map[string]any `json:"context,omitempty"`
}

type thinkResponse struct {
	Output string `json:"output"`
	Model  string `json:"model"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   reasona.Version,
	})
}

func (s *Server) handleAgentInfo(w http.ResponseWriter, _ *http.Request) {
	tools := s.conductor.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}

	jsonResponse(w, map[string]any{
		"name":        s.conductor.Name(),
		"model":       s.modelID(),
		"description": truncate(s.conductor.Instructions(), 200),
		"tools":       names,
		"version":     "1.0.0",
		"status":      "active",
	})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, s.conductor.Card())
}

func (s *Server) handleThink(w http.ResponseWriter, r *http.Request) {
	var req thinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		jsonError(w, "input is required", http.StatusBadRequest)
		return
	}

	if req.Stream {
		s.streamThink(w, r, req.Input)
		return
	}

	output, err := s.conductor.Think(r.Context(), req.Input)
	if err != nil {
		s.logger.Error("server.think.failed", "agent", s.conductor.Name(), "error", err.Error())
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, thinkResponse{Output: output, Model: s.modelID()})
}

// streamThink forwards agent output as Server-Sent Events, one data event
// per chunk.
func (s *Server) streamThink(w http.ResponseWriter, r *http.Request, input string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	chunks, errs := s.conductor.Stream(r.Context(), input)
	for chunk := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}
	if err := <-errs; err != nil {
		s.logger.Error("server.stream.failed", "agent", s.conductor.Name(), "error", err.Error())
	}
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.conductor.Reset()
	jsonResponse(w, map[string]string{"status": "ok", "message": "Conversation reset"})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	tools := s.conductor.Tools()
	entries := make([]map[string]any, len(tools))
	for i, t := range tools {
		entries[i] = map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"schema":      t.Parameters(),
		}
	}
	jsonResponse(w, map[string]any{"tools": entries})
}

func (s *Server) modelID() string {
	info := s.conductor.Model().Info()
	return fmt.Sprintf("%s/%s", info.Provider, info.Name)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
