package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/jobs"
	"github.com/Togather-Foundation/contests/internal/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations, including the job queue schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			pool, err := connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := jobs.RunMigrations(cmd.Context(), pool); err != nil {
				return err
			}
			return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back contest schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateDown(cfg.Database.URL, cfg.Database.MigrationsPath, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printVersion(cmd *cobra.Command, databaseURL, migrationsPath string) error {
	version, dirty, err := postgres.MigrationVersion(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
