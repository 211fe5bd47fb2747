package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/contests/internal/api/problem"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

// SolutionFetcher runs one solution enrichment pass.
type SolutionFetcher interface {
	FetchSolutions(ctx context.Context) map[contests.Platform][]contests.VideoSolution
}

// Refresher runs one aggregation cycle.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

type PipelineHandler struct {
	Solutions SolutionFetcher
	Refresher Refresher
	Env       string
}

func NewPipelineHandler(solutions SolutionFetcher, refresher Refresher, env string) *PipelineHandler {
	return &PipelineHandler{Solutions: solutions, Refresher: refresher, Env: env}
}

// FetchSolutions serves GET /api/v1/contests/solutions/fetch. Platforms
// whose playlist could not be read map to an empty list.
func (h *PipelineHandler) FetchSolutions(w http.ResponseWriter, r *http.Request) {
	if h.Solutions == nil {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Solution enrichment not configured", nil, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, h.Solutions.FetchSolutions(r.Context()))
}

type refreshResponse struct {
	Processed int `json:"processed"`
}

// Refresh serves POST /api/v1/contests/refresh and runs one aggregation
// cycle synchronously.
func (h *PipelineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Refresh not configured", nil, h.Env)
		return
	}
	processed, err := h.Refresher.RefreshAll(r.Context())
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Processed: processed})
}
