package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/contests/internal/storage"
)

// HealthCheck is the /readyz response body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult is the outcome of one named check: pass, warn, or fail.
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// CheckFunc runs one readiness check.
type CheckFunc func(ctx context.Context) CheckResult

// HealthChecker aggregates named readiness checks.
type HealthChecker struct {
	checks    map[string]CheckFunc
	version   string
	gitCommit string
}

func NewHealthChecker(version, gitCommit string) *HealthChecker {
	return &HealthChecker{checks: make(map[string]CheckFunc), version: version, gitCommit: gitCommit}
}

// Register adds or replaces a check.
func (h *HealthChecker) Register(name string, check CheckFunc) *HealthChecker {
	h.checks[name] = check
	return h
}

// Ready reports 200 when no check fails and 503 otherwise. Each check gets
// its own 2s budget.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		default:
		}

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		results := make(map[string]CheckResult, len(names))
		overall := "healthy"
		statusCode := http.StatusOK
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			result := h.checks[name](ctx)
			cancel()
			if result.LatencyMs == 0 {
				result.LatencyMs = time.Since(start).Milliseconds()
			}
			results[name] = result

			switch result.Status {
			case "fail":
				overall = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			case "warn":
				if overall == "healthy" {
					overall = "degraded"
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    results,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// StoreCheck pings the persistence backend.
func StoreCheck(store storage.Store) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if store == nil {
			return CheckResult{Status: "fail", Message: "store not initialized"}
		}
		if err := store.Ping(ctx); err != nil {
			message := "database ping failed"
			if ctx.Err() == context.DeadlineExceeded {
				message = "database ping timed out"
			}
			return CheckResult{Status: "fail", Message: message, Details: map[string]any{"error": err.Error()}}
		}
		return CheckResult{Status: "pass", Message: "database reachable"}
	}
}

// MigrationCheck fails when the schema is missing or left dirty.
func MigrationCheck(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if pool == nil {
			return CheckResult{Status: "fail", Message: "database pool not initialized"}
		}
		var version int64
		var dirty bool
		err := pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
		if err != nil {
			return CheckResult{
				Status:  "fail",
				Message: "failed to query migration version",
				Details: map[string]any{"error": err.Error(), "remediation": "run: server migrate up"},
			}
		}
		if dirty {
			return CheckResult{
				Status:  "fail",
				Message: "database in dirty migration state",
				Details: map[string]any{"version": version, "dirty": true},
			}
		}
		return CheckResult{
			Status:  "pass",
			Message: fmt.Sprintf("migrations applied (version %d)", version),
			Details: map[string]any{"version": version},
		}
	}
}

// JobQueueCheck reports how many scheduled jobs are waiting or running. A
// missing river_job table is a warning: the schedulers are not running yet.
func JobQueueCheck(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if pool == nil {
			return CheckResult{Status: "warn", Message: "job queue not initialized"}
		}
		var exists bool
		err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'river_job')`).Scan(&exists)
		if err != nil {
			return CheckResult{Status: "fail", Message: "failed to check job queue table", Details: map[string]any{"error": err.Error()}}
		}
		if !exists {
			return CheckResult{Status: "warn", Message: "river_job table not found"}
		}

		var active int64
		err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM river_job WHERE state = ANY($1)`, []string{"available", "running"}).Scan(&active)
		if err != nil {
			return CheckResult{Status: "fail", Message: "failed to query job queue", Details: map[string]any{"error": err.Error()}}
		}
		return CheckResult{Status: "pass", Message: "job queue operational", Details: map[string]any{"active_jobs": active}}
	}
}

// Healthz is a liveness probe.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
