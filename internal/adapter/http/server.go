// Package http exposes the service's HTTP surface: health and readiness
// probes, Prometheus metrics, the track and network analysis API, and a
// debugging chart of recent track points.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
	"github.com/couchcryptid/storm-track-analysis/internal/network"
	"github.com/couchcryptid/storm-track-analysis/internal/observability"
	"github.com/couchcryptid/storm-track-analysis/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// TrackReader is the read-side of the track store the API needs.
type TrackReader interface {
	ListTracks(ctx context.Context, f store.TrackFilter) ([]domain.StormTrack, error)
	GetTrack(ctx context.Context, id string) (domain.StormTrack, error)
	RecentPoints(ctx context.Context, limit int) ([]domain.TrackPoint, error)
}

// Server exposes the service over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	tracks     TrackReader
	net        *network.Network // nil when no network GeoJSON was configured
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and registers all routes. Pass a nil
// network to disable the /api/network endpoints.
func NewServer(addr string, ready ReadinessChecker, tracks TrackReader, net *network.Network, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		tracks:  tracks,
		net:     net,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/tracks", s.handleListTracks)
	mux.HandleFunc("GET /api/tracks/{id}", s.handleGetTrack)
	mux.HandleFunc("GET /api/network/summary", s.handleNetworkSummary)
	mux.HandleFunc("GET /api/network/route", s.handleRoute)
	mux.HandleFunc("GET /api/network/centrality", s.handleCentrality)
	mux.HandleFunc("GET /api/crs/{code}", s.handleCRS)
	mux.HandleFunc("POST /api/crs/transform", s.handleCRSTransform)
	mux.HandleFunc("GET /debug/trackmap", s.handleTrackMap)

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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
