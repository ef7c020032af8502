package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NoManNayeem/Terraform-POC/internal/metrics"
	"github.com/NoManNayeem/Terraform-POC/internal/server"
	"github.com/NoManNayeem/Terraform-POC/internal/storage/sqlite"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Initialize the database and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *globalFlags) error {
	cfg, logCloser, err := setup(cmd, flags)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		m        *metrics.Metrics
		observer sqlite.Observer
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observer = m.ObserveStore
	}

	// The schema must exist before the first request; a store that cannot
	// be opened stops startup here.
	store, err := openStore(ctx, cfg, observer)
	if err != nil {
		slog.Error("Failed to initialize storage", "database_url", cfg.Database.URL, "error", err)
		return asExitError(ExitCodeUnavailable, fmt.Errorf("initialize storage: %w", err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	handler := server.NewRouter(cfg, store, m, slog.Default().With("component", "http"))
	srv := server.New(cfg.Addr(), handler, cfg.Server.ShutdownTimeout, slog.Default().With("component", "server"))

	slog.Info("Starting items backend",
		"name", cfg.App.ProjectName,
		"address", cfg.Addr(),
		"api_prefix", cfg.Server.APIPrefix,
		"conn_policy", cfg.Database.ConnPolicy,
		"debug", cfg.Debug,
	)
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		return err
	}

	slog.Info("Server stopped")
	return nil
}
