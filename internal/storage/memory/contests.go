// Package memory provides an in-process contests.Repository used for dry
// runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/domain/ids"
	"github.com/Togather-Foundation/contests/internal/storage"
)

var (
	_ contests.Repository = (*ContestRepository)(nil)
	_ storage.Store       = (*Store)(nil)
)

// ContestRepository keeps contests in a map keyed by (name, platform).
type ContestRepository struct {
	mu    sync.RWMutex
	byKey map[contests.Key]*contests.Contest
	byID  map[string]*contests.Contest
	now   func() time.Time
}

func NewContestRepository() *ContestRepository {
	return &ContestRepository{
		byKey: make(map[contests.Key]*contests.Contest),
		byID:  make(map[string]*contests.Contest),
		now:   time.Now,
	}
}

func (r *ContestRepository) FindByKey(_ context.Context, key contests.Key) (*contests.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[key]
	if !ok {
		return nil, contests.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *ContestRepository) Upsert(_ context.Context, c contests.Contest) (contests.UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if existing, ok := r.byKey[c.Key()]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.SolutionLink = existing.SolutionLink
		c.UpdatedAt = now
		*existing = c
		return contests.UpsertResult{ID: c.ID, UpdatedAt: now}, nil
	}

	id, err := ids.NewULID()
	if err != nil {
		return contests.UpsertResult{}, err
	}
	c.ID = id
	c.SolutionLink = nil
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := c
	r.byKey[c.Key()] = &stored
	r.byID[id] = &stored
	return contests.UpsertResult{ID: id, Created: true, UpdatedAt: now}, nil
}

func (r *ContestRepository) ListByStatusNot(_ context.Context, status contests.Status) ([]contests.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contests.Contest, 0, len(r.byID))
	for _, c := range r.byID {
		if c.Status != status {
			out = append(out, *c)
		}
	}
	sortByStart(out, false)
	return out, nil
}

func (r *ContestRepository) UpdateStatus(_ context.Context, id string, status contests.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return contests.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = r.now().UTC()
	return nil
}

func (r *ContestRepository) List(_ context.Context, filter contests.Filter) ([]contests.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[contests.Platform]bool, len(filter.Platforms))
	for _, p := range filter.Platforms {
		allowed[p] = true
	}

	out := make([]contests.Contest, 0)
	for _, c := range r.byID {
		if len(allowed) > 0 && !allowed[c.Platform] {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	sortByStart(out, filter.Status == contests.StatusCompleted)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ContestRepository) GetByID(_ context.Context, id string) (*contests.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, contests.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *ContestRepository) SetSolutionLink(_ context.Context, id string, link string) (*contests.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, contests.ErrNotFound
	}
	c.SolutionLink = &link
	c.UpdatedAt = r.now().UTC()
	cp := *c
	return &cp, nil
}

// Len reports the number of stored contests.
func (r *ContestRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func sortByStart(items []contests.Contest, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].ID < items[j].ID
		}
		if desc {
			return items[i].StartTime.After(items[j].StartTime)
		}
		return items[i].StartTime.Before(items[j].StartTime)
	})
}

// Store adapts a ContestRepository to storage.Store.
type Store struct {
	repo *ContestRepository
}

func NewStore(repo *ContestRepository) *Store {
	if repo == nil {
		repo = NewContestRepository()
	}
	return &Store{repo: repo}
}

func (s *Store) Contests() contests.Repository { return s.repo }

func (s *Store) Ping(context.Context) error { return nil }
