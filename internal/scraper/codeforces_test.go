package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

const codeforcesFixture = `{
  "status": "OK",
  "result": [
    {"id": 2050, "name": "Codeforces Round 990 (Div. 1)", "type": "CF", "phase": "BEFORE",
     "frozen": false, "durationSeconds": 9000, "startTimeSeconds": 1704067200},
    {"id": 2049, "name": "Educational Codeforces Round 170", "type": "ICPC", "phase": "CODING",
     "frozen": false, "durationSeconds": 7200, "startTimeSeconds": 1704060000},
    {"id": 2048, "name": "Codeforces Global Round 28", "type": "CF", "phase": "SYSTEM_TEST",
     "frozen": false, "durationSeconds": 10800, "startTimeSeconds": 1703980800},
    {"id": 2047, "name": "Unscheduled Gym", "type": "ICPC", "phase": "BEFORE",
     "frozen": false, "durationSeconds": 18000}
  ]
}`

func TestParseCodeforcesResponse(t *testing.T) {
	raws, err := ParseCodeforcesResponse([]byte(codeforcesFixture), "https://codeforces.com/contest/")
	require.NoError(t, err)
	require.Len(t, raws, 3, "entries without a start time are skipped")

	first := raws[0]
	assert.Equal(t, "Codeforces Round 990 (Div. 1)", first.Name)
	assert.Equal(t, "https://codeforces.com/contest/2050", first.Link)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 30, 0, 0, time.UTC), first.EndTime)

	assert.Equal(t, contests.StatusUpcoming, raws[0].StatusHint)
	assert.Equal(t, contests.StatusOngoing, raws[1].StatusHint)
	assert.Equal(t, contests.StatusCompleted, raws[2].StatusHint)
}

func TestParseCodeforcesResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		assert func(t *testing.T, err error)
	}{
		{
			name: "not json",
			body: "<html>maintenance</html>",
			assert: func(t *testing.T, err error) {
				var parseErr *contests.ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name: "api failure",
			body: `{"status":"FAILED","comment":"Call limit exceeded"}`,
			assert: func(t *testing.T, err error) {
				var parseErr *contests.ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Contains(t, err.Error(), "Call limit exceeded")
			},
		},
		{
			name: "missing result",
			body: `{"status":"OK"}`,
			assert: func(t *testing.T, err error) {
				var structureErr *contests.StructureError
				require.ErrorAs(t, err, &structureErr)
				assert.Equal(t, "result", structureErr.Path)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCodeforcesResponse([]byte(tt.body), "")
			require.Error(t, err)
			tt.assert(t, err)
		})
	}
}

func codeforcesSource(url string) config.PlatformSource {
	return config.PlatformSource{
		Name:       "codeforces",
		Kind:       config.SourceKindAPI,
		URL:        url,
		ContestURL: "https://codeforces.com/contest/",
	}
}

func TestCodeforcesAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(codeforcesFixture))
	}))
	defer srv.Close()

	adapter := NewCodeforcesAdapter(codeforcesSource(srv.URL), newTestFetcher(), zerolog.Nop())
	got := adapter.Fetch(context.Background())

	require.Len(t, got, 3)
	assert.Equal(t, contests.PlatformCodeforces, got[0].Platform)
	assert.Equal(t, 150, got[0].Duration)
	assert.Equal(t, contests.StatusUpcoming, got[0].Status)
}

func TestCodeforcesAdapter_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"OK","result":[{"id":`))
		}},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"OK","contests":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			adapter := NewCodeforcesAdapter(codeforcesSource(srv.URL), newTestFetcher(), zerolog.Nop())
			assert.Empty(t, adapter.Fetch(context.Background()))
		})
	}
}

func TestCodeforcesAdapter_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	adapter := NewCodeforcesAdapter(codeforcesSource(url), newTestFetcher(), zerolog.Nop())
	assert.Empty(t, adapter.Fetch(context.Background()))
}
