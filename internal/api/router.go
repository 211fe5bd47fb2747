package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/api/handlers"
	"github.com/Togather-Foundation/contests/internal/api/middleware"
	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/metrics"
)

// BuildInfo is the version metadata exposed on /version and /readyz.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Dependencies are the services the HTTP surface delegates to.
type Dependencies struct {
	Contests  handlers.ContestService
	Solutions handlers.SolutionFetcher
	Refresher handlers.Refresher
	Health    *handlers.HealthChecker
}

// NewRouter wires routes and the middleware chain. Outermost first: security
// headers, CORS, correlation id, tracing, metrics, request logging.
func NewRouter(cfg config.Config, deps Dependencies, build BuildInfo, logger zerolog.Logger) http.Handler {
	contestsHandler := handlers.NewContestsHandler(deps.Contests, cfg.Environment)
	pipelineHandler := handlers.NewPipelineHandler(deps.Solutions, deps.Refresher, cfg.Environment)
	health := deps.Health
	if health == nil {
		health = handlers.NewHealthChecker(build.Version, build.GitCommit)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", health.Ready())
	mux.Handle("GET /version", VersionHandler(build.Version, build.GitCommit, build.BuildDate))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/v1/openapi.json", OpenAPIHandler())

	mux.HandleFunc("GET /api/v1/contests", contestsHandler.List)
	mux.HandleFunc("GET /api/v1/contests/{id}", contestsHandler.Get)
	mux.Handle("PUT /api/v1/contests/{id}/solution",
		middleware.RequestSize(middleware.DefaultMaxBodySize)(http.HandlerFunc(contestsHandler.UpdateSolution)))
	mux.HandleFunc("GET /api/v1/contests/solutions/fetch", pipelineHandler.FetchSolutions)
	mux.HandleFunc("POST /api/v1/contests/refresh", pipelineHandler.Refresh)

	var handler http.Handler = mux
	handler = middleware.RequestLogging(logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	return handler
}
