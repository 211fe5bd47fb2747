package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/jobs"
	"github.com/Togather-Foundation/contests/internal/scraper"
	"github.com/Togather-Foundation/contests/internal/solutions"
)

// pipeline holds the components shared by the server and the one-shot commands.
type pipeline struct {
	aggregator *scraper.Aggregator
	lifecycle  *contests.Lifecycle
	service    *contests.Service
	enricher   *solutions.Enricher
}

func newFetcher(cfg config.ScraperConfig, logger zerolog.Logger) *scraper.Fetcher {
	return scraper.NewFetcher(cfg.Timeout, logger,
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithRateLimit(cfg.RateLimit),
		scraper.WithRobots(cfg.RespectRobots),
	)
}

func buildPipeline(cfg config.Config, repo contests.Repository, logger zerolog.Logger) (*pipeline, error) {
	sources, err := config.LoadPlatformSources(cfg.Scraper.PlatformsFile, cfg.Solutions.Playlists)
	if err != nil {
		return nil, err
	}

	fetcher := newFetcher(cfg.Scraper, logger)
	adapters, err := scraper.BuildAdapters(sources, fetcher, cfg.Scraper.BrowserURL, logger)
	if err != nil {
		return nil, fmt.Errorf("build adapters: %w", err)
	}

	return &pipeline{
		aggregator: scraper.NewAggregator(repo, logger, adapters...),
		lifecycle:  contests.NewLifecycle(repo, logger, contests.WithTransitionHook(jobs.RecordTransition)),
		service:    contests.NewService(repo, logger),
		enricher:   solutions.NewEnricher(fetcher, config.Playlists(sources), logger),
	}, nil
}
