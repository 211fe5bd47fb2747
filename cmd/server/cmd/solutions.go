package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/solutions"
)

func newSolutionsCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "solutions",
		Short: "Fetch video solutions for every configured playlist",
		Long: `Read each configured playlist page and print the videos found, keyed by
platform. Platforms whose playlist cannot be read map to an empty list.

Playlists come from the platforms file or YOUTUBE_<PLATFORM>_PLAYLIST_ID.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSolutions(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline for the fetch")
	return cmd
}

func runSolutions(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	sources, err := config.LoadPlatformSources(cfg.Scraper.PlatformsFile, cfg.Solutions.Playlists)
	if err != nil {
		return err
	}
	enricher := solutions.NewEnricher(newFetcher(cfg.Scraper, logger), config.Playlists(sources), logger)
	return writeJSONTo(out, enricher.FetchSolutions(ctx))
}
