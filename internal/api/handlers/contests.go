package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Togather-Foundation/contests/internal/api/problem"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/domain/ids"
)

// ContestService is the read and solution-link surface the handlers need.
type ContestService interface {
	List(ctx context.Context, filter contests.Filter) ([]contests.Contest, error)
	Get(ctx context.Context, id string) (*contests.Contest, error)
	SetSolutionLink(ctx context.Context, id string, link string) (*contests.Contest, error)
}

type ContestsHandler struct {
	Service  ContestService
	Env      string
	validate *validator.Validate
}

func NewContestsHandler(service ContestService, env string) *ContestsHandler {
	return &ContestsHandler{Service: service, Env: env, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type solutionRequest struct {
	SolutionLink string `json:"solutionLink" validate:"required,http_url"`
}

// List serves GET /api/v1/contests?platform=a,b&status=s&limit=n.
func (h *ContestsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
				fmt.Errorf("limit must be an integer"), h.Env, problem.WithErrors(map[string]any{"limit": "must be an integer"}))
			return
		}
		limit = n
	}

	filter, err := contests.ParseFilter(query.Get("platform"), query.Get("status"), limit)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	if items == nil {
		items = []contests.Contest{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Get serves GET /api/v1/contests/{id}.
func (h *ContestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contestID(w, r)
	if !ok {
		return
	}
	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateSolution serves PUT /api/v1/contests/{id}/solution.
func (h *ContestsHandler) UpdateSolution(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contestID(w, r)
	if !ok {
		return
	}

	var req solutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			problem.FromError(w, r, err, h.Env)
			return
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	req.SolutionLink = strings.TrimSpace(req.SolutionLink)
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(fieldErrors(err)))
		return
	}

	updated, err := h.Service.SetSolutionLink(r.Context(), id, req.SolutionLink)
	if err != nil {
		problem.FromError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ContestsHandler) contestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]any{"id": "invalid ULID"}))
		return "", false
	}
	return strings.ToUpper(id), true
}

func fieldErrors(err error) map[string]any {
	out := make(map[string]any)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			if field == "SolutionLink" {
				field = "solutionLink"
			}
			out[field] = fe.Tag()
		}
	}
	return out
}
