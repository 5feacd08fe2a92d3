package canvasnote

import (
	"context"

	"github.com/spf13/cobra"
)

// Main is the CLI entry point. It parses args, builds the App, and
// dispatches to the chosen subcommand. Split from package main so tests
// and embedders can invoke the CLI with their own context and arguments.
func Main(ctx context.Context, args []string) error {
	var (
		configPath string
		overrides  Config
	)

	root := &cobra.Command{
		Use:           "canvasnote",
		Short:         "Block-based note service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&overrides.ServerPort, "port", "", "Server port")
	root.PersistentFlags().StringVar(&overrides.Backend, "backend", "", "Store backend: sqlite or postgres")
	root.PersistentFlags().StringVar(&overrides.SQLitePath, "sqlite-path", "", "SQLite database path")
	root.PersistentFlags().StringVar(&overrides.PostgresDSN, "postgres-dsn", "", "PostgreSQL DSN")
	root.PersistentFlags().StringVar(&overrides.MediaDir, "media-dir", "", "Directory for uploaded media")
	root.PersistentFlags().StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	loadApp := func() (*App, error) {
		config, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		applyOverrides(config, &overrides)
		return New(config)
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the canvasnote server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Migrate(cmd.Context())
		},
	}

	root.AddCommand(runCmd, migrateCmd)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// applyOverrides copies non-empty flag values over the loaded config.
func applyOverrides(config, overrides *Config) {
	if overrides.ServerPort != "" {
		config.ServerPort = overrides.ServerPort
	}
	if overrides.Backend != "" {
		config.Backend = overrides.Backend
	}
	if overrides.SQLitePath != "" {
		config.SQLitePath = overrides.SQLitePath
	}
	if overrides.PostgresDSN != "" {
		config.PostgresDSN = overrides.PostgresDSN
	}
	if overrides.MediaDir != "" {
		config.MediaDir = overrides.MediaDir
	}
	if overrides.LogLevel != "" {
		config.LogLevel = overrides.LogLevel
	}
}
