package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/NoManNayeem/Terraform-POC/internal/config"
	"github.com/NoManNayeem/Terraform-POC/internal/storage/sqlite"
	"github.com/NoManNayeem/Terraform-POC/pkg/logging"
)

// setup loads configuration and installs the default logger.
// The returned closer flushes the log file, if one is configured.
func setup(cmd *cobra.Command, flags *globalFlags) (config.Config, io.Closer, error) {
	cfg, err := config.Load(flags.loadOptions(cmd))
	if err != nil {
		return config.Config{}, nil, configError(fmt.Errorf("load config: %w", err))
	}

	closer, err := logging.Setup(logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		AddSource: cfg.Debug,
	})
	if err != nil {
		return config.Config{}, nil, configError(fmt.Errorf("setup logging: %w", err))
	}

	slog.Debug("Configuration loaded", "config", cfg)
	return cfg, closer, nil
}

// openStore opens the database named by cfg and makes sure the schema exists.
func openStore(ctx context.Context, cfg config.Config, observer sqlite.Observer) (*sqlite.SQLiteStore, error) {
	path, err := sqlite.PathFromURL(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	policy, err := sqlite.ParsePolicy(cfg.Database.ConnPolicy)
	if err != nil {
		return nil, err
	}

	return sqlite.New(ctx, sqlite.Options{
		Path:     path,
		Policy:   policy,
		Workers:  cfg.Database.Workers,
		Observer: observer,
	})
}
