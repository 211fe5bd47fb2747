package contests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(150 * time.Minute)

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{"well before start", start.Add(-24 * time.Hour), StatusUpcoming},
		{"one nanosecond before start", start.Add(-time.Nanosecond), StatusUpcoming},
		{"exactly at start", start, StatusOngoing},
		{"midway", start.Add(75 * time.Minute), StatusOngoing},
		{"one nanosecond before end", end.Add(-time.Nanosecond), StatusOngoing},
		{"exactly at end", end, StatusCompleted},
		{"long after end", end.Add(30 * 24 * time.Hour), StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(start, end, tt.now))
		})
	}
}

func TestResolveStatusIgnoresLocation(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ist := time.FixedZone("IST", 5*3600+1800)

	now := time.Date(2024, 1, 1, 17, 45, 0, 0, ist) // 12:15 UTC
	assert.Equal(t, StatusOngoing, ResolveStatus(start, end, now))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusUpcoming.Terminal())
	assert.False(t, StatusOngoing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
}

func TestParseStatusAndPlatform(t *testing.T) {
	s, err := ParseStatus(" Ongoing ")
	assert.NoError(t, err)
	assert.Equal(t, StatusOngoing, s)

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	p, err := ParsePlatform("CodeChef")
	assert.NoError(t, err)
	assert.Equal(t, PlatformCodeChef, p)

	_, err = ParsePlatform("atcoder")
	assert.ErrorIs(t, err, ErrInvalidPlatform)
}
