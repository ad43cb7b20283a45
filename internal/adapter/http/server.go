package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AndersM123/MagicMirror/internal/transit"
	"github.com/AndersM123/MagicMirror/internal/widget"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// TimelineSource exposes the reconciled display state of widget instances.
// Implemented by widget.Manager.
type TimelineSource interface {
	Snapshot(instanceID string) (widget.Snapshot, bool)
	Snapshots() []widget.Snapshot
}

// DepartureSource exposes the latest transit board. Implemented by
// transit.Service; nil when the board is not configured.
type DepartureSource interface {
	Board() (transit.Board, bool)
}

// Server exposes health, readiness, metrics, and the widget data API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the HTTP server. departures may be nil.
func NewServer(addr string, ready ReadinessChecker, timelines TimelineSource, departures DepartureSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/timelines", handleTimelines(timelines))
	mux.HandleFunc("GET /api/timelines/{id}", handleTimeline(timelines))
	mux.HandleFunc("GET /api/departures", handleDepartures(departures))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleTimelines(timelines TimelineSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"timelines": timelines.Snapshots()})
	}
}

func handleTimeline(timelines TimelineSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := timelines.Snapshot(r.PathValue("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown instance"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleDepartures(departures DepartureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if departures == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "departures board not configured"})
			return
		}
		board, ok := departures.Board()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no departures fetched yet"})
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
