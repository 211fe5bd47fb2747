package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/jobs"
)

func newRecomputeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute the status of every stored contest once",
		Long: `Re-derive upcoming, ongoing and completed for every contest that has not
yet completed and write back the ones that changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runRecompute(ctx context.Context, out io.Writer) error {
	cfg, err := loadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	return withRepository(ctx, cfg, logger, func(repo contests.Repository) error {
		lifecycle := contests.NewLifecycle(repo, logger, contests.WithTransitionHook(jobs.RecordTransition))
		result, err := lifecycle.Recompute(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "checked %d, updated %d, failed %d\n", result.Checked, result.Updated, result.Failed)
		return nil
	})
}
