package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

var start = time.Date(2024, 3, 1, 14, 35, 0, 0, time.UTC)

func contest(name string, platform contests.Platform, offset time.Duration, status contests.Status) contests.Contest {
	return contests.Contest{
		Name:      name,
		Platform:  platform,
		Link:      "https://example.com/" + name,
		StartTime: start.Add(offset),
		EndTime:   start.Add(offset + 2*time.Hour),
		Duration:  120,
		Status:    status,
	}
}

func TestUpsertPreservesSolutionLink(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()

	first, err := repo.Upsert(ctx, contest("Round 900", contests.PlatformCodeforces, 0, contests.StatusUpcoming))
	require.NoError(t, err)
	assert.True(t, first.Created)

	_, err = repo.SetSolutionLink(ctx, first.ID, "https://youtu.be/x")
	require.NoError(t, err)

	again := contest("Round 900", contests.PlatformCodeforces, time.Hour, contests.StatusUpcoming)
	link := "https://attacker.example"
	again.SolutionLink = &link
	second, err := repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.Len())

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SolutionLink)
	assert.Equal(t, "https://youtu.be/x", *got.SolutionLink)
	assert.True(t, got.StartTime.Equal(start.Add(time.Hour)))
}

func TestSameNameDifferentPlatformsAreDistinct(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()

	_, err := repo.Upsert(ctx, contest("Weekly", contests.PlatformCodeforces, 0, contests.StatusUpcoming))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, contest("Weekly", contests.PlatformCodeChef, 0, contests.StatusUpcoming))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Len())
}

func TestReturnedContestsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()

	res, err := repo.Upsert(ctx, contest("Copy", contests.PlatformCodeChef, 0, contests.StatusUpcoming))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.FindByKey(ctx, contests.Key{Name: "Copy", Platform: contests.PlatformCodeChef})
	require.NoError(t, err)
	assert.Equal(t, "Copy", again.Name)
}

func TestListOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()

	for _, c := range []contests.Contest{
		contest("old", contests.PlatformCodeforces, -72*time.Hour, contests.StatusCompleted),
		contest("older", contests.PlatformCodeforces, -96*time.Hour, contests.StatusCompleted),
		contest("soon", contests.PlatformCodeChef, 24*time.Hour, contests.StatusUpcoming),
		contest("sooner", contests.PlatformCodeforces, 2*time.Hour, contests.StatusUpcoming),
	} {
		_, err := repo.Upsert(ctx, c)
		require.NoError(t, err)
	}

	completed, err := repo.List(ctx, contests.Filter{Status: contests.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, "old", completed[0].Name)

	upcoming, err := repo.List(ctx, contests.Filter{Status: contests.StatusUpcoming})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "sooner", upcoming[0].Name)

	cc, err := repo.List(ctx, contests.Filter{Platforms: []contests.Platform{contests.PlatformCodeChef}})
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, "soon", cc[0].Name)

	limited, err := repo.List(ctx, contests.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	open, err := repo.ListByStatusNot(ctx, contests.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestMissingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewContestRepository()

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", contests.StatusOngoing), contests.ErrNotFound)
	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, contests.ErrNotFound)
	_, err = repo.SetSolutionLink(ctx, "nope", "https://x.test")
	assert.ErrorIs(t, err, contests.ErrNotFound)
}
