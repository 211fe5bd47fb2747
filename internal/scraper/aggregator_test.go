package scraper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/storage/memory"
)

type stubAdapter struct {
	platform contests.Platform
	items    []contests.Contest
	delay    time.Duration
	calls    atomic.Int32
}

func (s *stubAdapter) Platform() contests.Platform { return s.platform }

func (s *stubAdapter) Fetch(ctx context.Context) []contests.Contest {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil
		}
	}
	return s.items
}

type failingUpsertRepo struct {
	*memory.ContestRepository
	failNames map[string]bool
	failAll   bool
}

func (r *failingUpsertRepo) Upsert(ctx context.Context, c contests.Contest) (contests.UpsertResult, error) {
	if r.failAll || r.failNames[c.Name] {
		return contests.UpsertResult{}, &contests.PersistenceError{Op: "upsert", Key: c.Key().String(), Err: errors.New("connection refused")}
	}
	return r.ContestRepository.Upsert(ctx, c)
}

func contestAt(name string, platform contests.Platform, start time.Time) contests.Contest {
	return contests.Contest{
		Name:      name,
		Platform:  platform,
		Link:      "https://example.com/" + name,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Duration:  120,
		Status:    contests.StatusUpcoming,
	}
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRefreshAll_MergesAdapters(t *testing.T) {
	repo := memory.NewContestRepository()
	cf := &stubAdapter{platform: contests.PlatformCodeforces, items: []contests.Contest{
		contestAt("Round 1", contests.PlatformCodeforces, t0),
		contestAt("Round 2", contests.PlatformCodeforces, t0.Add(24*time.Hour)),
	}, delay: 20 * time.Millisecond}
	cc := &stubAdapter{platform: contests.PlatformCodeChef, items: []contests.Contest{
		contestAt("Round 1", contests.PlatformCodeChef, t0),
	}}

	agg := NewAggregator(repo, zerolog.Nop(), cf, cc)
	n, err := agg.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, repo.Len(), "same name on different platforms is a different contest")
	assert.Equal(t, []contests.Platform{contests.PlatformCodeforces, contests.PlatformCodeChef}, agg.Platforms())
}

func TestRefreshAll_IdempotentAndPreservesSolutionLink(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewContestRepository()
	adapter := &stubAdapter{platform: contests.PlatformCodeforces, items: []contests.Contest{
		contestAt("Round 1", contests.PlatformCodeforces, t0),
	}}
	agg := NewAggregator(repo, zerolog.Nop(), adapter)

	_, err := agg.RefreshAll(ctx)
	require.NoError(t, err)

	stored, err := repo.FindByKey(ctx, contests.Key{Name: "Round 1", Platform: contests.PlatformCodeforces})
	require.NoError(t, err)
	_, err = repo.SetSolutionLink(ctx, stored.ID, "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)

	// Second ingestion with a moved start time.
	moved := contestAt("Round 1", contests.PlatformCodeforces, t0.Add(time.Hour))
	moved.Link = "https://example.com/round-1-moved"
	adapter.items = []contests.Contest{moved}

	_, err = agg.RefreshAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Len())
	got, err := repo.FindByKey(ctx, moved.Key())
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.True(t, got.StartTime.Equal(t0.Add(time.Hour)))
	assert.Equal(t, "https://example.com/round-1-moved", got.Link)
	require.NotNil(t, got.SolutionLink)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", *got.SolutionLink)
}

func TestRefreshAll_DuplicateKeysInOneRunCollapse(t *testing.T) {
	repo := memory.NewContestRepository()
	adapter := &stubAdapter{platform: contests.PlatformCodeChef, items: []contests.Contest{
		contestAt("Starters 1", contests.PlatformCodeChef, t0),
		contestAt("Starters 1", contests.PlatformCodeChef, t0.Add(48*time.Hour)),
	}}

	n, err := NewAggregator(repo, zerolog.Nop(), adapter).RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, repo.Len())

	got, err := repo.FindByKey(context.Background(), contests.Key{Name: "Starters 1", Platform: contests.PlatformCodeChef})
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(t0.Add(48*time.Hour)), "latest ingestion wins")
}

func TestRefreshAll_RowFailureIsSkipped(t *testing.T) {
	repo := &failingUpsertRepo{
		ContestRepository: memory.NewContestRepository(),
		failNames:         map[string]bool{"Round 2": true},
	}
	adapter := &stubAdapter{platform: contests.PlatformCodeforces, items: []contests.Contest{
		contestAt("Round 1", contests.PlatformCodeforces, t0),
		contestAt("Round 2", contests.PlatformCodeforces, t0),
		contestAt("Round 3", contests.PlatformCodeforces, t0),
	}}

	n, err := NewAggregator(repo, zerolog.Nop(), adapter).RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, repo.Len())
}

func TestRefreshAll_StoreUnreachable(t *testing.T) {
	repo := &failingUpsertRepo{ContestRepository: memory.NewContestRepository(), failAll: true}
	adapter := &stubAdapter{platform: contests.PlatformCodeforces, items: []contests.Contest{
		contestAt("Round 1", contests.PlatformCodeforces, t0),
	}}

	_, err := NewAggregator(repo, zerolog.Nop(), adapter).RefreshAll(context.Background())
	var persistErr *contests.PersistenceError
	assert.ErrorAs(t, err, &persistErr)
}

func TestRefreshAll_EmptyAdaptersIsNotAnError(t *testing.T) {
	repo := memory.NewContestRepository()
	empty := &stubAdapter{platform: contests.PlatformCodeforces}

	n, err := NewAggregator(repo, zerolog.Nop(), empty).RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, empty.calls.Load())
}

func TestRefreshAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &stubAdapter{platform: contests.PlatformCodeforces}
	_, err := NewAggregator(memory.NewContestRepository(), zerolog.Nop(), adapter).RefreshAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, adapter.calls.Load())
}

func TestRefreshAll_NoRepository(t *testing.T) {
	_, err := NewAggregator(nil, zerolog.Nop()).RefreshAll(context.Background())
	assert.Error(t, err)
}
