package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"

	"github.com/Togather-Foundation/contests/internal/config"
)

func TestNewRetryPolicy(t *testing.T) {
	policy := NewRetryPolicy()
	if policy == nil {
		t.Fatal("NewRetryPolicy() returned nil")
	}

	for _, kind := range []string{JobKindContestRefresh, JobKindContestStatus} {
		t.Run(kind, func(t *testing.T) {
			cfg, ok := policy.ByKind[kind]
			if !ok {
				t.Fatalf("kind %s not found in ByKind map", kind)
			}
			if cfg.MaxAttempts != 1 {
				t.Errorf("MaxAttempts = %d, want 1", cfg.MaxAttempts)
			}
			if cfg.BaseDelay != 0 {
				t.Errorf("BaseDelay = %v, want 0", cfg.BaseDelay)
			}
		})
	}
}

func TestRetryPolicy_NextRetry(t *testing.T) {
	policy := NewRetryPolicy()
	now := time.Now()

	tests := []struct {
		name          string
		kind          string
		attempt       int
		expectedDelay time.Duration
	}{
		{"refresh retries immediately", JobKindContestRefresh, 1, 0},
		{"unknown kind first attempt", "other", 1, 30 * time.Second},
		{"unknown kind backs off", "other", 3, 2 * time.Minute},
		{"unknown kind capped", "other", 20, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &rivertype.JobRow{Kind: tt.kind, Attempt: tt.attempt, AttemptedAt: &now}
			delay := policy.NextRetry(job).Sub(now)
			if tt.expectedDelay == 0 {
				if delay > 2*time.Second {
					t.Errorf("delay = %v, want immediate", delay)
				}
				return
			}
			if delay != tt.expectedDelay {
				t.Errorf("delay = %v, want %v", delay, tt.expectedDelay)
			}
		})
	}
}

func TestInsertOptsForKind(t *testing.T) {
	opts := InsertOptsForKind(JobKindContestRefresh)
	if opts.Queue != QueueRefresh || opts.MaxAttempts != 1 {
		t.Errorf("refresh opts = %+v", opts)
	}
	opts = InsertOptsForKind(JobKindContestStatus)
	if opts.Queue != QueueLifecycle || opts.MaxAttempts != 1 {
		t.Errorf("status opts = %+v", opts)
	}
	if got := (RefreshContestsArgs{}).InsertOpts(); got.Queue != QueueRefresh {
		t.Errorf("RefreshContestsArgs queue = %q", got.Queue)
	}
}

func TestNewPeriodicJobs(t *testing.T) {
	jobs := NewPeriodicJobs(config.ScheduleConfig{
		RefreshInterval: 6 * time.Hour,
		StatusInterval:  time.Hour,
		RefreshOnStart:  true,
	})
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	for i, job := range jobs {
		if job == nil {
			t.Errorf("job %d is nil", i)
		}
	}
}

func TestNewClientConfig(t *testing.T) {
	cfg := NewClientConfig(NewWorkers(nil, nil, testLogger()), nil, nil, nil, nil)
	if cfg.Queues[QueueRefresh].MaxWorkers != 1 {
		t.Errorf("refresh queue MaxWorkers = %d, want 1", cfg.Queues[QueueRefresh].MaxWorkers)
	}
	if cfg.Queues[QueueLifecycle].MaxWorkers != 1 {
		t.Errorf("lifecycle queue MaxWorkers = %d, want 1", cfg.Queues[QueueLifecycle].MaxWorkers)
	}
	if cfg.ErrorHandler != nil {
		t.Error("ErrorHandler should be unset without a logger")
	}
}
