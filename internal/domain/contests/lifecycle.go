package contests

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultRecomputeConcurrency bounds concurrent status writes per tick.
const DefaultRecomputeConcurrency = 8

// RecomputeResult summarises one lifecycle tick.
type RecomputeResult struct {
	Checked int
	Updated int
	Failed  int
}

// Lifecycle re-derives the status of every non-terminal contest against the
// current time and writes back only the ones that changed.
type Lifecycle struct {
	repo         Repository
	now          func() time.Time
	concurrency  int
	onTransition func(from, to Status)
	logger       zerolog.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) { l.now = now }
}

// WithConcurrency sets the maximum number of in-flight status writes.
func WithConcurrency(n int) LifecycleOption {
	return func(l *Lifecycle) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithTransitionHook registers a callback invoked after each successful write.
func WithTransitionHook(fn func(from, to Status)) LifecycleOption {
	return func(l *Lifecycle) { l.onTransition = fn }
}

func NewLifecycle(repo Repository, logger zerolog.Logger, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		repo:        repo,
		now:         time.Now,
		concurrency: DefaultRecomputeConcurrency,
		logger:      logger.With().Str("component", "lifecycle").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Recompute runs one tick. Individual write failures are logged and counted;
// only a failure to read the candidate set is returned.
func (l *Lifecycle) Recompute(ctx context.Context) (RecomputeResult, error) {
	if l.repo == nil {
		return RecomputeResult{}, fmt.Errorf("lifecycle: repository not configured")
	}

	candidates, err := l.repo.ListByStatusNot(ctx, StatusCompleted)
	if err != nil {
		return RecomputeResult{}, &PersistenceError{Op: "list non-completed contests", Err: err}
	}

	now := l.now().UTC()
	var updated, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, c := range candidates {
		next := ResolveStatus(c.StartTime, c.EndTime, now)
		if next == c.Status {
			continue
		}
		if next.rank() < c.Status.rank() {
			// Upstream rescheduled the contest; the fresh value still wins.
			l.logger.Warn().
				Str("id", c.ID).
				Str("platform", string(c.Platform)).
				Str("name", c.Name).
				Str("from", string(c.Status)).
				Str("to", string(next)).
				Msg("status moving backwards")
		}

		g.Go(func() error {
			if err := l.repo.UpdateStatus(gctx, c.ID, next); err != nil {
				failed.Add(1)
				l.logger.Error().Err(err).
					Str("id", c.ID).
					Str("platform", string(c.Platform)).
					Str("name", c.Name).
					Msg("status update failed")
				return nil
			}
			updated.Add(1)
			if l.onTransition != nil {
				l.onTransition(c.Status, next)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := RecomputeResult{
		Checked: len(candidates),
		Updated: int(updated.Load()),
		Failed:  int(failed.Load()),
	}
	l.logger.Info().
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("status recompute finished")
	return result, ctx.Err()
}
