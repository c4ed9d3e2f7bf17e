// Package http exposes the service's operational endpoints: liveness,
// readiness, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessTimeout bounds how long a readiness probe may take.
const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether the poll pipeline has produced data yet.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// statusResponse is the body of /healthz and /readyz replies.
type statusResponse struct {
	Status  string `json:"status"`
	Station string `json:"station,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server serves /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	station    string
	ready      ReadinessChecker
	logger     *slog.Logger
}

// NewServer creates the operational HTTP server. The station id is echoed in
// probe responses so a fleet operator can tell instances apart.
func NewServer(addr, station string, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		station: station,
		ready:   ready,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

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
	writeJSON(w, http.StatusOK, statusResponse{Status: "healthy", Station: s.station})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Status:  "not ready",
			Station: s.station,
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready", Station: s.station})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort probe response
}
