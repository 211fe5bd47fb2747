package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/storage/memory"
	"github.com/Togather-Foundation/contests/internal/storage/postgres"
)

func newRefreshCommand() *cobra.Command {
	var (
		dryRun  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every platform once and store the results",
		Long: `Run a single aggregation cycle outside the scheduler.

With --dry-run contests are collected into memory and printed as JSON
instead of being written to the database. DATABASE_URL is not needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runRefresh(ctx, cmd.OutOrStdout(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "collect into memory and print instead of writing to the database")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the refresh")
	return cmd
}

func runRefresh(ctx context.Context, out io.Writer, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	if dryRun {
		repo := memory.NewContestRepository()
		p, err := buildPipeline(cfg, repo, logger)
		if err != nil {
			return err
		}
		n, err := p.aggregator.RefreshAll(ctx)
		if err != nil {
			return err
		}
		all, err := repo.List(ctx, contests.Filter{})
		if err != nil {
			return err
		}
		logger.Info().Int("processed", n).Msg("dry run complete")
		return writeJSONTo(out, all)
	}

	return withRepository(ctx, cfg, logger, func(repo contests.Repository) error {
		p, err := buildPipeline(cfg, repo, logger)
		if err != nil {
			return err
		}
		n, err := p.aggregator.RefreshAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "processed %d contests\n", n)
		return nil
	})
}

// withRepository connects to the configured database for the duration of fn.
func withRepository(ctx context.Context, cfg config.Config, logger zerolog.Logger, fn func(contests.Repository) error) error {
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}
	logger.Debug().Msg("database connected")
	return fn(repo.Contests())
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := postgres.Connect(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

func writeJSONTo(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
