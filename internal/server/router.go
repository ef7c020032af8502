// Package server assembles the HTTP handler tree and runs the listener.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/NoManNayeem/Terraform-POC/internal/config"
	"github.com/NoManNayeem/Terraform-POC/internal/metrics"
	"github.com/NoManNayeem/Terraform-POC/internal/middleware"
	"github.com/NoManNayeem/Terraform-POC/internal/service"
	"github.com/NoManNayeem/Terraform-POC/internal/storage"
)

// NewRouter wires every route and middleware. m may be nil when metrics are disabled.
func NewRouter(cfg config.Config, store storage.Store, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	itemsPath := cfg.Server.APIPrefix + "/items"
	health := service.NewHealthService(store, cfg.App.ProjectName, cfg.App.Version, itemsPath)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.Recover(logger))
	r.Use(corsHandler())

	// Set before Mount so the items subrouter inherits them.
	r.NotFound(service.NotFound)
	r.MethodNotAllowed(service.MethodNotAllowed)

	r.Get("/", health.Info)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	if cfg.Server.APIPrefix != "" {
		r.Get(cfg.Server.APIPrefix+"/health", health.Health)
	}
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Mount(itemsPath, service.NewItemService(store).Routes())
	return r
}

// corsHandler allows any origin, method and header. The origin is echoed
// back so credentialed browser requests are accepted.
func corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
