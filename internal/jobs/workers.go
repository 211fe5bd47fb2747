package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/metrics"
)

// Refresher runs one aggregation cycle.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// StatusRecomputer runs one lifecycle tick.
type StatusRecomputer interface {
	Recompute(ctx context.Context) (contests.RecomputeResult, error)
}

type RefreshContestsArgs struct{}

func (RefreshContestsArgs) Kind() string { return JobKindContestRefresh }

func (RefreshContestsArgs) InsertOpts() river.InsertOpts {
	return InsertOptsForKind(JobKindContestRefresh)
}

// RefreshContestsWorker pulls every platform and upserts the results.
type RefreshContestsWorker struct {
	river.WorkerDefaults[RefreshContestsArgs]
	Refresher Refresher
	Logger    zerolog.Logger
}

func (RefreshContestsWorker) Kind() string { return JobKindContestRefresh }

func (w RefreshContestsWorker) Work(ctx context.Context, job *river.Job[RefreshContestsArgs]) error {
	if w.Refresher == nil {
		return fmt.Errorf("refresher not configured")
	}
	if job == nil {
		return fmt.Errorf("contest refresh job missing")
	}

	processed, err := w.Refresher.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh contests: %w", err)
	}
	w.Logger.Info().Int64("job_id", job.ID).Int("processed", processed).Msg("scheduled refresh finished")
	return nil
}

type RecomputeStatusArgs struct{}

func (RecomputeStatusArgs) Kind() string { return JobKindContestStatus }

func (RecomputeStatusArgs) InsertOpts() river.InsertOpts {
	return InsertOptsForKind(JobKindContestStatus)
}

// RecomputeStatusWorker re-derives the status of every non-completed contest.
type RecomputeStatusWorker struct {
	river.WorkerDefaults[RecomputeStatusArgs]
	Lifecycle StatusRecomputer
	Logger    zerolog.Logger
}

func (RecomputeStatusWorker) Kind() string { return JobKindContestStatus }

func (w RecomputeStatusWorker) Work(ctx context.Context, job *river.Job[RecomputeStatusArgs]) error {
	if w.Lifecycle == nil {
		return fmt.Errorf("lifecycle not configured")
	}
	if job == nil {
		return fmt.Errorf("contest status job missing")
	}

	result, err := w.Lifecycle.Recompute(ctx)
	if err != nil {
		return fmt.Errorf("recompute contest status: %w", err)
	}
	w.Logger.Debug().
		Int64("job_id", job.ID).
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Msg("scheduled status recompute finished")
	return nil
}

// RecordTransition feeds the status transition counter. It is meant to be
// passed to contests.WithTransitionHook.
func RecordTransition(from, to contests.Status) {
	metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func NewWorkers(refresher Refresher, lifecycle StatusRecomputer, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[RefreshContestsArgs](workers, RefreshContestsWorker{
		Refresher: refresher,
		Logger:    logger.With().Str("job", JobKindContestRefresh).Logger(),
	})
	river.AddWorker[RecomputeStatusArgs](workers, RecomputeStatusWorker{
		Lifecycle: lifecycle,
		Logger:    logger.With().Str("job", JobKindContestStatus).Logger(),
	})
	return workers
}
