// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"autoapply/internal/common/logger"
	"autoapply/internal/models"
	"autoapply/internal/pipeline"
	"autoapply/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UserRunner starts a run for one user. Satisfied by scheduler.Runner.
type UserRunner interface {
	Run(ctx context.Context, user models.User, capped bool, sink pipeline.EventSink) models.AutomationRunResult
}

// Server is the interactive entry point and ops surface: manual run
// triggers, live SSE progress streams, dedup checks, run summaries,
// metrics and health.
type Server struct {
	runner UserRunner
	store  store.Store
	log    logger.Logger

	httpServer *http.Server
}

func New(address string, runner UserRunner, st store.Store, log logger.Logger) *Server {
	s := &Server{
		runner: runner,
		store:  st,
		log:    log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/runs/{userID}", s.handleTriggerRun)
	mux.HandleFunc("GET /api/runs/{userID}/stream", s.handleStreamRun)
	mux.HandleFunc("GET /api/runs/{userID}/latest", s.handleLatestRun)
	mux.HandleFunc("GET /api/applications/check", s.handleCheckApplication)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.log.Info("HTTP server listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleTriggerRun fires a one-off capped run in the background and
// answers immediately.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	user, ok := s.lookupUser(w, r)
	if !ok {
		return
	}

	go func() {
		// Detached from the request: closing the connection must not
		// cancel the run.
		result := s.runner.Run(context.Background(), *user, true, nil)
		s.log.Info("Manual run complete", map[string]interface{}{
			"userId":  user.ID,
			"applied": result.Applied,
			"errors":  result.Errors,
		})
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"userId": user.ID,
	})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	summary, err := s.store.LatestRunSummary(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load run summary")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no runs recorded for user")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCheckApplication(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	url := r.URL.Query().Get("url")
	if userID == "" || url == "" {
		writeError(w, http.StatusBadRequest, "user and url query parameters are required")
		return
	}

	applied, err := s.store.HasApplication(r.Context(), userID, url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not check application history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userID,
		"url":     models.NormalizeURL(url),
		"applied": applied,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID := r.PathValue("userID")
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load user")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "unknown user")
		return nil, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
