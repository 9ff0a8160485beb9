// Package server exposes the HTTP trigger surface: a health probe, a
// sync trigger, and the last cycle outcome. It is an operator surface,
// not a public API, and carries no auth of its own.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"questsync/internal/engine"
	"questsync/internal/logging"
)

// Config for the HTTP handler.
type Config struct {
	Runner  *engine.Runner
	Version string
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Busy bool            `json:"busy"`
	Last *engine.Outcome `json:"last_cycle"`
}

type server struct {
	runner  *engine.Runner
	version string
}

// New returns the HTTP handler for the trigger surface.
func New(cfg Config) http.Handler {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &server{runner: cfg.Runner, version: version}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/", s.handleBanner)
	router.Get("/healthz", s.handleHealthz)
	router.Post("/sync", s.handleSync)
	router.Get("/status", s.handleStatus)

	return router
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Get().WithComponent("server").WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("Request handled")
	})
}

func (s *server) handleBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "questsync %s\n\n", s.version)
	fmt.Fprintln(w, "POST /sync     run a reconciliation cycle")
	fmt.Fprintln(w, "GET  /status   last cycle outcome")
	fmt.Fprintln(w, "GET  /healthz  liveness probe")
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSync runs a cycle inline and returns its outcome. The runner
// serializes concurrent triggers; a request arriving mid-cycle is
// rejected rather than queued.
func (s *server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.runner.Busy() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a cycle is already running"})
		return
	}

	outcome, err := s.runner.RunCycle(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last := s.runner.LastOutcome()
	if last == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no cycle has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Busy: s.runner.Busy(), Last: last})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get().WithComponent("server").WithError(err).Warn("Failed to encode response")
	}
}
