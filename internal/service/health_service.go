package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is the part of the store the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Items   string `json:"items"`
}

// HealthService serves liveness, readiness and service info.
type HealthService struct {
	store   Pinger
	name    string
	version string
	items   string
	timeout time.Duration
}

// NewHealthService creates a HealthService. itemsPath is advertised by the
// info endpoint.
func NewHealthService(store Pinger, name, version, itemsPath string) *HealthService {
	return &HealthService{
		store:   store,
		name:    name,
		version: version,
		items:   itemsPath,
		timeout: 2 * time.Second,
	}
}

// Health handles GET /health. It never touches the store.
func (s *HealthService) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Service: "backend"})
}

// Ready handles GET /ready by pinging the store.
func (s *HealthService) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("Readiness check failed", "error", err)
		writeDetail(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Info handles GET /.
func (s *HealthService) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message: s.name,
		Version: s.version,
		Items:   s.items,
	})
}
