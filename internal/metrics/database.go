package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently acquired",
		},
	)

	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// DBCollector samples pool statistics on an interval.
type DBCollector struct {
	pool *pgxpool.Pool
}

func NewDBCollector(pool *pgxpool.Pool) *DBCollector {
	return &DBCollector{pool: pool}
}

// Run collects until ctx is cancelled.
func (c *DBCollector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) collect() {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	DBConnectionsOpen.Set(float64(stat.TotalConns()))
	DBConnectionsInUse.Set(float64(stat.AcquiredConns()))
}

// RecordQuery observes one query. Call it deferred with the start time:
//
//	defer func() { metrics.RecordQuery("upsert_contest", start, err) }()
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	errorType := "query_error"
	switch {
	case errors.Is(err, context.Canceled):
		errorType = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		errorType = "timeout"
	}
	DBErrors.WithLabelValues(operation, errorType).Inc()
}
