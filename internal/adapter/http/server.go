package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Defaults are the service-wide query settings (protocol, language and
// credentials) that per-request parameters are layered onto.
type Defaults struct {
	Geocode      domain.GeocodeQuery
	Autocomplete domain.AutocompleteQuery
}

// Server exposes the lookup API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	geocoder   domain.Geocoder
	defaults   Defaults
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/geocode, /v1/autocomplete,
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, geocoder domain.Geocoder, defaults Defaults, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		geocoder: geocoder,
		defaults: defaults,
		logger:   logger,
	}

	mux.HandleFunc("GET /v1/geocode", s.handleGeocode)
	mux.HandleFunc("GET /v1/autocomplete", s.handleAutocomplete)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
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

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q, err := parseGeocodeQuery(r.URL.Query(), s.defaults.Geocode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.geocoder.Geocode(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q, err := parseAutocompleteQuery(r.URL.Query(), s.defaults.Autocomplete)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.geocoder.Autocomplete(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
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

// writeError maps a lookup error onto an HTTP status. Error text never carries
// credentials.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("lookup request failed", "kind", kind, "error", domain.RedactedError(err))
	}
	writeJSON(w, status, map[string]string{
		"error": domain.RedactedError(err),
		"kind":  kind,
	})
}

func statusForKind(kind string) int {
	switch kind {
	case domain.KindInvalidQuery, domain.KindInvalidCryptoKey:
		return http.StatusBadRequest
	case domain.KindQueryStatus:
		return http.StatusUnprocessableEntity
	case domain.KindNetStatus, domain.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
