package postgres

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newContest(name string, platform contests.Platform, start time.Time, status contests.Status) contests.Contest {
	return contests.Contest{
		Name:      name,
		Platform:  platform,
		Link:      "https://example.com/" + name,
		StartTime: start,
		EndTime:   start.Add(150 * time.Minute),
		Duration:  150,
		Status:    status,
	}
}

func TestContestRepository_UpsertIsIdempotent(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo := NewContestRepository(pool)

	first, err := repo.Upsert(ctx, newContest("Round 1", contests.PlatformCodeforces, base, contests.StatusUpcoming))
	require.NoError(t, err)
	assert.True(t, first.Created)

	_, err = repo.SetSolutionLink(ctx, first.ID, "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)

	moved := newContest("Round 1", contests.PlatformCodeforces, base.Add(time.Hour), contests.StatusOngoing)
	moved.Link = "https://codeforces.com/contest/1"
	second, err := repo.Upsert(ctx, moved)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.FindByKey(ctx, moved.Key())
	require.NoError(t, err)
	assert.Equal(t, "https://codeforces.com/contest/1", got.Link)
	assert.True(t, got.StartTime.Equal(base.Add(time.Hour)))
	assert.Equal(t, contests.StatusOngoing, got.Status)
	require.NotNil(t, got.SolutionLink)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", *got.SolutionLink)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM contests`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestContestRepository_ConcurrentUpsertsCollapse(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo := NewContestRepository(pool)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, newContest("Starters 1", contests.PlatformCodeChef, base.Add(time.Duration(i)*time.Minute), contests.StatusUpcoming))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM contests`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestContestRepository_StatusOperations(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo := NewContestRepository(pool)

	up, err := repo.Upsert(ctx, newContest("A", contests.PlatformCodeforces, base, contests.StatusUpcoming))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, newContest("B", contests.PlatformCodeforces, base, contests.StatusCompleted))
	require.NoError(t, err)

	open, err := repo.ListByStatusNot(ctx, contests.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "A", open[0].Name)

	require.NoError(t, repo.UpdateStatus(ctx, up.ID, contests.StatusOngoing))
	got, err := repo.GetByID(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, contests.StatusOngoing, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ", contests.StatusOngoing), contests.ErrNotFound)
}

func TestContestRepository_List(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo := NewContestRepository(pool)

	for i, c := range []contests.Contest{
		newContest("CF past 1", contests.PlatformCodeforces, base, contests.StatusCompleted),
		newContest("CF past 2", contests.PlatformCodeforces, base.Add(24*time.Hour), contests.StatusCompleted),
		newContest("CC past", contests.PlatformCodeChef, base.Add(48*time.Hour), contests.StatusCompleted),
		newContest("CF next", contests.PlatformCodeforces, base.Add(96*time.Hour), contests.StatusUpcoming),
		newContest("CC next", contests.PlatformCodeChef, base.Add(72*time.Hour), contests.StatusUpcoming),
	} {
		_, err := repo.Upsert(ctx, c)
		require.NoError(t, err, "seed %d", i)
	}

	completed, err := repo.List(ctx, contests.Filter{Status: contests.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 3)
	assert.Equal(t, "CC past", completed[0].Name, "completed contests are newest first")

	upcoming, err := repo.List(ctx, contests.Filter{Status: contests.StatusUpcoming})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "CC next", upcoming[0].Name, "others are soonest first")

	cf, err := repo.List(ctx, contests.Filter{Platforms: []contests.Platform{contests.PlatformCodeforces}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, cf, 2)
	for _, c := range cf {
		assert.Equal(t, contests.PlatformCodeforces, c.Platform)
	}
}

func TestContestRepository_ListNoRows(t *testing.T) {
	pool, _ := setupPostgres(t)
	repo := NewContestRepository(pool)

	got, err := repo.List(context.Background(), contests.Filter{Status: contests.StatusOngoing})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestContestRepository_NotFound(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo := NewContestRepository(pool)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, contests.ErrNotFound)

	_, err = repo.FindByKey(ctx, contests.Key{Name: "nope", Platform: contests.PlatformCodeChef})
	assert.ErrorIs(t, err, contests.ErrNotFound)

	_, err = repo.SetSolutionLink(ctx, "missing", "https://example.com")
	assert.ErrorIs(t, err, contests.ErrNotFound)
}

func TestRepository_WithTxRollsBack(t *testing.T) {
	pool, _ := setupPostgres(t)
	ctx := context.Background()
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	require.NoError(t, repo.Ping(ctx))

	err = repo.WithTx(ctx, func(ctx context.Context, tx *Repository) error {
		_, err := tx.Contests().Upsert(ctx, newContest("Tx", contests.PlatformCodeforces, base, contests.StatusUpcoming))
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = repo.Contests().FindByKey(ctx, contests.Key{Name: "Tx", Platform: contests.PlatformCodeforces})
	assert.ErrorIs(t, err, contests.ErrNotFound)
}

func TestMigrationVersion(t *testing.T) {
	_, dbURL := setupPostgres(t)

	version, dirty, err := MigrationVersion(dbURL, filepath.Join(projectRoot(), DefaultMigrationsPath))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, version)
}

func TestNewRepository_NilPool(t *testing.T) {
	_, err := NewRepository(nil)
	assert.Error(t, err)
}
