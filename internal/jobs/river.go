package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"

	"github.com/Togather-Foundation/contests/internal/config"
)

const (
	JobKindContestRefresh = "contest_refresh"
	JobKindContestStatus  = "contest_status"
)

// Each schedule gets its own single-worker queue so ticks of the same kind
// never overlap.
const (
	QueueRefresh   = "contest_refresh"
	QueueLifecycle = "contest_status"
)

// Scheduled work is not retried; the next tick is the retry.
const (
	RefreshMaxAttempts = 1
	StatusMaxAttempts  = 1
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindContestRefresh: {MaxAttempts: RefreshMaxAttempts},
			JobKindContestStatus:  {MaxAttempts: StatusMaxAttempts},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	cfg := p.configFor(job.Kind)
	if cfg.BaseDelay == 0 {
		return time.Now()
	}

	attempt := max(job.Attempt, 1)
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: 1}
	}
	if cfg, ok := p.ByKind[kind]; ok {
		return cfg
	}
	return p.Default
}

// InsertOptsForKind returns default insert options for a job kind.
func InsertOptsForKind(kind string) river.InsertOpts {
	opts := river.InsertOpts{MaxAttempts: NewRetryPolicy().configFor(kind).MaxAttempts}
	switch kind {
	case JobKindContestRefresh:
		opts.Queue = QueueRefresh
	case JobKindContestStatus:
		opts.Queue = QueueLifecycle
	}
	return opts
}

// NewClientConfig builds a River client configuration with retry policy.
func NewClientConfig(workers *river.Workers, logger *slog.Logger, notify AlertFunc, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) *river.Config {
	policy := NewRetryPolicy()
	cfg := &river.Config{
		Workers:      workers,
		RetryPolicy:  policy,
		MaxAttempts:  policy.Default.MaxAttempts,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
			QueueRefresh:       {MaxWorkers: 1},
			QueueLifecycle:     {MaxWorkers: 1},
		},
		Hooks: hooks,
	}
	if logger != nil {
		cfg.Logger = logger
		cfg.ErrorHandler = NewAlertingErrorHandler(logger, notify)
	}
	return cfg
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger, notify AlertFunc, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger, notify, hooks, periodicJobs))
}

// NewPeriodicJobs builds the fetch and lifecycle schedules.
func NewPeriodicJobs(cfg config.ScheduleConfig) []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.RefreshInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return RefreshContestsArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: cfg.RefreshOnStart},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.StatusInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return RecomputeStatusArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
}

// RunMigrations installs or upgrades River's own tables.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("migrate river schema: %w", err)
	}
	return nil
}
