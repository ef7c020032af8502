// Package cli defines the backend's command-line interface.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/NoManNayeem/Terraform-POC/internal/config"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// globalFlags are shared by every command that loads configuration.
type globalFlags struct {
	configPath  string
	envFiles    []string
	host        string
	port        int
	databaseURL string
	debug       bool
}

// loadOptions turns the flags that were set explicitly into config overrides.
func (f *globalFlags) loadOptions(cmd *cobra.Command) config.LoadOptions {
	opts := config.LoadOptions{
		ConfigPath: f.configPath,
		EnvFiles:   f.envFiles,
	}
	if cmd.Flags().Changed("host") {
		opts.Flags.Host = &f.host
	}
	if cmd.Flags().Changed("port") {
		opts.Flags.Port = &f.port
	}
	if cmd.Flags().Changed("database-url") {
		opts.Flags.DatabaseURL = &f.databaseURL
	}
	if cmd.Flags().Changed("debug") {
		opts.Flags.Debug = &f.debug
	}
	return opts
}

// NewRootCommand builds the command tree. Running the root command with no
// subcommand starts the server.
func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "items-backend",
		Short:         "HTTP backend for the items resource",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return asExitError(ExitCodeUsage, err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (default: $CONFIG_FILE)")
	pf.StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files to read; they never override variables already set")
	pf.StringVar(&flags.host, "host", "", "listen host (overrides HOST)")
	pf.IntVar(&flags.port, "port", 0, "listen port (overrides PORT)")
	pf.StringVar(&flags.databaseURL, "database-url", "", "database location (overrides DATABASE_URL)")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging (overrides DEBUG)")

	cmd.AddCommand(newServeCommand(flags))
	cmd.AddCommand(newInitDBCommand(out, flags))
	cmd.AddCommand(newVersionCommand(out, build))
	return cmd
}
