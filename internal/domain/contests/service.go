package contests

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/validation"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Service exposes read access to stored contests and the out-of-band
// solution link update.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "contests").Logger()}
}

// List returns contests matching filter. Completed contests are ordered most
// recent first by the repository; everything else soonest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Contest, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}
	if items == nil {
		items = []Contest{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Contest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// SetSolutionLink attaches a solution URL to one contest. It is the only
// writer of the field; ingestion never touches it.
func (s *Service) SetSolutionLink(ctx context.Context, id string, link string) (*Contest, error) {
	link = strings.TrimSpace(link)
	if err := validation.ValidateURL(link, "solutionLink"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	updated, err := s.repo.SetSolutionLink(ctx, id, link)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", id).Str("solution_link", link).Msg("solution link updated")
	return updated, nil
}

// ParseFilter builds a Filter from query-string style values.
func ParseFilter(platforms, status string, limit int) (Filter, error) {
	var filter Filter
	for _, raw := range strings.Split(platforms, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := ParsePlatform(raw)
		if err != nil {
			return Filter{}, err
		}
		filter.Platforms = append(filter.Platforms, p)
	}
	if strings.TrimSpace(status) != "" {
		st, err := ParseStatus(status)
		if err != nil {
			return Filter{}, err
		}
		filter.Status = st
	}
	if limit < 0 {
		return Filter{}, fmt.Errorf("limit must be >= 0, got %d", limit)
	}
	filter.Limit = limit
	return filter, nil
}
