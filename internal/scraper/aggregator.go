package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/metrics"
	"github.com/Togather-Foundation/contests/internal/telemetry"
)

// Aggregator fans out to every adapter and upserts the union of their
// results keyed by (name, platform).
type Aggregator struct {
	adapters []Adapter
	repo     contests.Repository
	logger   zerolog.Logger
}

func NewAggregator(repo contests.Repository, logger zerolog.Logger, adapters ...Adapter) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		repo:     repo,
		logger:   logger.With().Str("component", "aggregator").Logger(),
	}
}

// RefreshAll runs one aggregation cycle and returns the number of contests
// processed. Row failures are logged and skipped. An error is returned only
// when nothing could be written: a cancelled context, a missing repository,
// or every upsert failing.
func (a *Aggregator) RefreshAll(ctx context.Context) (int, error) {
	if a.repo == nil {
		return 0, errors.New("aggregator has no repository")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "aggregator.refresh_all")
	defer span.End()

	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	all := a.collect(ctx)

	var (
		created, updated, failed int
		lastErr                  error
	)
	for _, c := range all {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err)
			return created + updated, err
		}
		res, err := a.repo.Upsert(ctx, c)
		if err != nil {
			failed++
			lastErr = err
			metrics.Upserts.WithLabelValues("failed").Inc()
			a.logger.Error().Err(err).
				Str("platform", string(c.Platform)).
				Str("name", c.Name).
				Msg("upsert failed, skipping contest")
			continue
		}
		if res.Created {
			created++
			metrics.Upserts.WithLabelValues("created").Inc()
		} else {
			updated++
			metrics.Upserts.WithLabelValues("updated").Inc()
		}
	}

	span.SetAttributes(
		attribute.Int("contests.fetched", len(all)),
		attribute.Int("contests.created", created),
		attribute.Int("contests.updated", updated),
		attribute.Int("contests.failed", failed),
	)
	a.logger.Info().
		Int("processed", len(all)).
		Int("created", created).
		Int("updated", updated).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("refresh complete")

	if failed > 0 && failed == len(all) {
		err := &contests.PersistenceError{Op: "upsert", Err: fmt.Errorf("all %d upserts failed: %w", failed, lastErr)}
		telemetry.RecordError(span, err)
		return len(all), err
	}
	return len(all), nil
}

// collect runs every adapter concurrently and concatenates their output.
// Adapters absorb their own failures, so the group never cancels early.
func (a *Aggregator) collect(ctx context.Context) []contests.Contest {
	results := make([][]contests.Contest, len(a.adapters))

	var g errgroup.Group
	for i, adapter := range a.adapters {
		g.Go(func() error {
			got := adapter.Fetch(ctx)
			metrics.AdapterContests.WithLabelValues(string(adapter.Platform())).Add(float64(len(got)))
			a.logger.Debug().Str("platform", string(adapter.Platform())).Int("contests", len(got)).Msg("adapter returned")
			results[i] = got
			return nil
		})
	}
	_ = g.Wait()

	var all []contests.Contest
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// Platforms lists the platforms this aggregator fetches from.
func (a *Aggregator) Platforms() []contests.Platform {
	out := make([]contests.Platform, 0, len(a.adapters))
	for _, adapter := range a.adapters {
		out = append(out, adapter.Platform())
	}
	return out
}
