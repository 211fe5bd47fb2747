package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/api"
	"github.com/Togather-Foundation/contests/internal/api/handlers"
	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/email"
	"github.com/Togather-Foundation/contests/internal/jobs"
	"github.com/Togather-Foundation/contests/internal/metrics"
	"github.com/Togather-Foundation/contests/internal/storage/postgres"
	"github.com/Togather-Foundation/contests/internal/telemetry"
)

type serveOptions struct {
	host string
	port int
}

func newServeCommand() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the contest tracker HTTP server",
		Long: `Start the HTTP server together with the background scheduler.

The server will:
- Load configuration from environment variables
- Apply database migrations for contests and the job queue
- Refresh all platforms on start and every REFRESH_INTERVAL (default 6h)
- Recompute contest status every STATUS_INTERVAL (default 1h)
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(opts serveOptions) error {
	cfg, err := loadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting contest tracker")

	metrics.Init(Version, GitCommit, BuildDate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.Connect(connectCtx, cfg.Database)
	connectCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		return err
	}
	if err := jobs.RunMigrations(ctx, pool); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}
	p, err := buildPipeline(cfg, repo.Contests(), logger)
	if err != nil {
		return err
	}

	notifier, err := email.NewNotifier(cfg.Alerts, logger)
	if err != nil {
		return fmt.Errorf("alerts: %w", err)
	}
	slogLogger := config.NewSlogLogger(cfg.Logging)
	riverClient, err := jobs.NewClient(
		pool,
		jobs.NewWorkers(p.aggregator, p.lifecycle, logger),
		slogLogger,
		jobs.EmailAlerts(notifier, slogLogger),
		[]rivertype.Hook{metrics.NewRiverMetricsHook()},
		jobs.NewPeriodicJobs(cfg.Schedule),
	)
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().
		Dur("refresh_interval", cfg.Schedule.RefreshInterval).
		Dur("status_interval", cfg.Schedule.StatusInterval).
		Msg("scheduler started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
			return
		}
		logger.Info().Msg("river workers stopped")
	}()

	go metrics.NewDBCollector(pool).Run(ctx, 15*time.Second)

	health := handlers.NewHealthChecker(Version, GitCommit).
		Register("database", handlers.StoreCheck(repo)).
		Register("migrations", handlers.MigrationCheck(pool)).
		Register("job_queue", handlers.JobQueueCheck(pool))

	handler := api.NewRouter(cfg, api.Dependencies{
		Contests:  p.service,
		Solutions: p.enricher,
		Refresher: p.aggregator,
		Health:    health,
	}, api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second, // refresh and solution fetch call out to the platforms
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	return gracefulShutdown(server, logger)
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
