// Package problem writes RFC 7807 application/problem+json responses.
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

const contentType = "application/problem+json"

const (
	TypeValidation  = "https://contests.dev/problems/validation-error"
	TypeNotFound    = "https://contests.dev/problems/not-found"
	TypeTooLarge    = "https://contests.dev/problems/payload-too-large"
	TypeServerError = "https://contests.dev/problems/server-error"
	TypeUnavailable = "https://contests.dev/problems/unavailable"
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write renders a problem. Outside development and test the error text is
// replaced with the status text.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}
	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}
	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

// FromError maps domain errors onto a status and problem type.
func FromError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, contests.ErrNotFound):
		Write(w, r, http.StatusNotFound, TypeNotFound, "Not found", err, env)
	case errors.Is(err, contests.ErrInvalidLink),
		errors.Is(err, contests.ErrInvalidPlatform),
		errors.Is(err, contests.ErrInvalidStatus):
		Write(w, r, http.StatusBadRequest, TypeValidation, "Invalid request", err, env)
	case errors.As(err, &maxBytes):
		Write(w, r, http.StatusRequestEntityTooLarge, TypeTooLarge, "Payload too large", err, env)
	default:
		Write(w, r, http.StatusInternalServerError, TypeServerError, "Server error", err, env)
	}
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
