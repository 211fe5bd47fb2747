package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/config"
)

var (
	// Global flags
	envFile   string
	logLevel  string
	logFormat string

	rootCmd = newRootCommand()
)

// newRootCommand builds the full command tree. Running it without a
// subcommand starts the server.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "Contest tracker server - aggregates programming contests",
		Long: `Contest tracker server collects contest listings from Codeforces and
CodeChef into one catalogue, keeps each contest's status current, and links
contests to their video solutions.

The server runs:
- A platform refresh every 6 hours and once on start
- An hourly status recompute (upcoming, ongoing, completed)
- An HTTP API for listing contests and attaching solution links`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				config.LoadEnvFile(envFile)
			}
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "KEY=VALUE file loaded before reading the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	serve := newServeCommand()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newRefreshCommand())
	root.AddCommand(newRecomputeCommand())
	root.AddCommand(newSolutionsCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// loadDatabaseConfig is loadConfig for commands that open a connection.
func loadDatabaseConfig() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
