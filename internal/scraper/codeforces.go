package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/telemetry"
)

const defaultCodeforcesContestURL = "https://codeforces.com/contest/"

type codeforcesResponse struct {
	Status  string               `json:"status"`
	Comment string               `json:"comment"`
	Result  *[]codeforcesContest `json:"result"`
}

type codeforcesContest struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Phase            string `json:"phase"`
	StartTimeSeconds *int64 `json:"startTimeSeconds"`
	DurationSeconds  int64  `json:"durationSeconds"`
}

// ParseCodeforcesResponse decodes a contest.list payload. Entries without a
// start time are skipped. contestURL is the prefix the numeric id is
// appended to.
func ParseCodeforcesResponse(body []byte, contestURL string) ([]contests.RawContest, error) {
	var resp codeforcesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &contests.ParseError{Source: "codeforces", Err: err}
	}
	if resp.Status != "" && resp.Status != "OK" {
		return nil, &contests.ParseError{
			Source: "codeforces",
			Err:    fmt.Errorf("api status %s: %s", resp.Status, resp.Comment),
		}
	}
	if resp.Result == nil {
		return nil, &contests.StructureError{Source: "codeforces", Path: "result"}
	}

	if contestURL == "" {
		contestURL = defaultCodeforcesContestURL
	}
	if !strings.HasSuffix(contestURL, "/") {
		contestURL += "/"
	}

	raws := make([]contests.RawContest, 0, len(*resp.Result))
	for _, c := range *resp.Result {
		if c.StartTimeSeconds == nil {
			continue
		}
		start := time.Unix(*c.StartTimeSeconds, 0).UTC()
		raws = append(raws, contests.RawContest{
			Name:       c.Name,
			Link:       contestURL + strconv.FormatInt(c.ID, 10),
			StartTime:  start,
			EndTime:    start.Add(time.Duration(c.DurationSeconds) * time.Second),
			StatusHint: codeforcesPhaseStatus(c.Phase),
		})
	}
	return raws, nil
}

func codeforcesPhaseStatus(phase string) contests.Status {
	switch phase {
	case "BEFORE":
		return contests.StatusUpcoming
	case "CODING":
		return contests.StatusOngoing
	default:
		return contests.StatusCompleted
	}
}

// CodeforcesAdapter lists contests from the Codeforces JSON API.
type CodeforcesAdapter struct {
	source     config.PlatformSource
	fetcher    *Fetcher
	normalizer *contests.Normalizer
	logger     zerolog.Logger
}

func NewCodeforcesAdapter(source config.PlatformSource, fetcher *Fetcher, logger zerolog.Logger) *CodeforcesAdapter {
	return &CodeforcesAdapter{
		source:     source,
		fetcher:    fetcher,
		normalizer: contests.NewNormalizer(nil),
		logger:     logger.With().Str("component", "adapter").Str("platform", string(contests.PlatformCodeforces)).Logger(),
	}
}

func (a *CodeforcesAdapter) Platform() contests.Platform { return contests.PlatformCodeforces }

// Fetch never fails: any fetch or decode problem is logged and yields nil.
func (a *CodeforcesAdapter) Fetch(ctx context.Context) []contests.Contest {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "adapter.codeforces")
	defer span.End()

	body, err := a.fetcher.Get(ctx, a.source.URL, nil)
	if err != nil {
		err = &contests.FetchError{Platform: contests.PlatformCodeforces, URL: a.source.URL, Err: err}
		recordAdapterFailure(a.logger, contests.PlatformCodeforces, err)
		telemetry.RecordError(span, err)
		return nil
	}

	raws, err := ParseCodeforcesResponse(body, a.source.ContestURL)
	if err != nil {
		recordAdapterFailure(a.logger, contests.PlatformCodeforces, err)
		telemetry.RecordError(span, err)
		return nil
	}

	out := normalizeAll(a.normalizer, raws, contests.PlatformCodeforces, a.logger)
	span.SetAttributes(attribute.Int("contests.count", len(out)))
	return out
}
