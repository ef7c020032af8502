package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newInitDBCommand(out io.Writer, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			store, err := openStore(cmd.Context(), cfg, nil)
			if err != nil {
				return asExitError(ExitCodeUnavailable, fmt.Errorf("initialize storage: %w", err))
			}
			defer store.Close()

			count, err := store.CountItems(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("Database initialized", "database_url", cfg.Database.URL, "items", count)
			_, err = fmt.Fprintf(out, "database ready: %s (%d items)\n", cfg.Database.URL, count)
			return err
		},
	}
}
