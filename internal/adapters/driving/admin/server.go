// Package admin exposes the running scheduler over a local HTTP
// surface: live pipeline state and manual run triggers that go through
// the same per-pipeline lock as scheduled runs.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Server serves scheduler status and manual triggers. It binds to a
// loopback address; this is an operator surface, not a public API.
type Server struct {
	scheduler driving.Scheduler

	mu       sync.Mutex
	addr     string
	server   *http.Server
	listener net.Listener
}

// New creates an admin server for the given scheduler.
func New(scheduler driving.Scheduler, addr string) *Server {
	return &Server{scheduler: scheduler, addr: addr}
}

// Start begins listening. It does not block; serve loop errors are
// logged.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /run/{pipeline}", s.handleRun)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("admin listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	// Triggered runs execute synchronously and can take minutes, so no
	// write timeout.
	s.server = &http.Server{Handler: mux, ReadTimeout: 10 * time.Second}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Admin server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured
// one when the port was 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Wire shapes.

type pipelineStatusDoc struct {
	Name       string     `json:"name"`
	Running    bool       `json:"running"`
	NextRun    time.Time  `json:"next_run"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
}

type statusDoc struct {
	Running   bool                `json:"running"`
	Pipelines []pipelineStatusDoc `json:"pipelines"`
}

type runResultDoc struct {
	Pipeline        string `json:"pipeline"`
	Status          string `json:"status"`
	TotalCandidates int    `json:"total_candidates"`
	Upserted        int    `json:"upserted"`
	Skipped         int    `json:"skipped"`
	Errors          int    `json:"errors"`
}

type errorDoc struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.scheduler.Status()
	doc := statusDoc{Running: status.Running}
	for _, p := range status.Pipelines {
		pd := pipelineStatusDoc{
			Name:       p.Name,
			Running:    p.Running,
			NextRun:    p.NextRun,
			LastStatus: string(p.LastStatus),
		}
		if !p.LastRun.IsZero() {
			lastRun := p.LastRun
			pd.LastRun = &lastRun
		}
		doc.Pipelines = append(doc.Pipelines, pd)
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	pipeline := r.PathValue("pipeline")
	summary, err := s.scheduler.Trigger(r.Context(), pipeline)
	switch {
	case errors.Is(err, domain.ErrUnknownPipeline):
		writeJSON(w, http.StatusNotFound, errorDoc{Error: err.Error()})
	case errors.Is(err, domain.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorDoc{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorDoc{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, runResultDoc{
			Pipeline:        summary.Pipeline,
			Status:          string(summary.Status),
			TotalCandidates: summary.TotalCandidates,
			Upserted:        len(summary.Upserted),
			Skipped:         len(summary.Skipped),
			Errors:          len(summary.Errors),
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Admin response write failed: %v", err)
	}
}
