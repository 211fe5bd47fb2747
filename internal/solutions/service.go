package solutions

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/metrics"
	"github.com/Togather-Foundation/contests/internal/scraper"
	"github.com/Togather-Foundation/contests/internal/telemetry"
)

const (
	playlistURL = "https://www.youtube.com/playlist?list="

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var playlistHeaders = http.Header{
	"User-Agent": {browserUserAgent},
	"Referer":    {"https://www.youtube.com/"},
	"Origin":     {"https://www.youtube.com"},
}

// Enricher discovers solution videos from one playlist per platform. Results
// are not associated with individual contests.
type Enricher struct {
	fetcher   *scraper.Fetcher
	playlists map[contests.Platform]string
	logger    zerolog.Logger
}

// NewEnricher builds an Enricher from platform name to playlist URL or id.
// Unknown platforms and empty values are dropped.
func NewEnricher(fetcher *scraper.Fetcher, playlists map[string]string, logger zerolog.Logger) *Enricher {
	logger = logger.With().Str("component", "solutions").Logger()
	configured := make(map[contests.Platform]string, len(playlists))
	for name, value := range playlists {
		platform, err := contests.ParsePlatform(name)
		if err != nil {
			logger.Warn().Str("platform", name).Msg("ignoring playlist for unknown platform")
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			configured[platform] = PlaylistURL(value)
		}
	}
	return &Enricher{fetcher: fetcher, playlists: configured, logger: logger}
}

// PlaylistURL accepts either a full playlist URL or a bare playlist id.
func PlaylistURL(value string) string {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return playlistURL + url.QueryEscape(value)
}

// Platforms returns the platforms that have a playlist configured.
func (e *Enricher) Platforms() []contests.Platform {
	var out []contests.Platform
	for _, p := range contests.Platforms {
		if _, ok := e.playlists[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FetchSolutions fetches every configured playlist concurrently. Each
// configured platform maps to its videos, or to an empty list when its
// playlist could not be read; one platform's failure never affects another.
func (e *Enricher) FetchSolutions(ctx context.Context) map[contests.Platform][]contests.VideoSolution {
	ctx, span := telemetry.Tracer("github.com/Togather-Foundation/contests/internal/solutions").Start(ctx, "solutions.fetch")
	defer span.End()

	var (
		mu      sync.Mutex
		results = make(map[contests.Platform][]contests.VideoSolution, len(e.playlists))
	)

	var g errgroup.Group
	for platform, playlist := range e.playlists {
		g.Go(func() error {
			videos, err := e.FetchPlaylist(ctx, platform, playlist)
			if err != nil {
				reason := failureReason(err)
				metrics.EnrichmentFailures.WithLabelValues(string(platform), reason).Inc()
				e.logger.Error().Err(err).
					Str("platform", string(platform)).
					Str("url", playlist).
					Str("reason", reason).
					Msg("playlist enrichment failed")
				videos = []contests.VideoSolution{}
			}
			metrics.SolutionVideos.WithLabelValues(string(platform)).Add(float64(len(videos)))

			mu.Lock()
			results[platform] = videos
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(attribute.Int("platforms", len(results)))
	return results
}

// FetchPlaylist fetches one playlist page and returns its videos. Errors are
// typed: *FetchError, *ExtractionError, *ParseError, or *StructureError.
func (e *Enricher) FetchPlaylist(ctx context.Context, platform contests.Platform, playlist string) ([]contests.VideoSolution, error) {
	page, err := e.fetcher.Get(ctx, playlist, playlistHeaders)
	if err != nil {
		return nil, &contests.FetchError{Platform: platform, URL: playlist, Err: err}
	}
	blob, err := ExtractInitialData(page)
	if err != nil {
		return nil, err
	}
	return ParsePlaylistVideos(blob)
}

func failureReason(err error) string {
	var (
		fetchErr     *contests.FetchError
		extractErr   *contests.ExtractionError
		parseErr     *contests.ParseError
		structureErr *contests.StructureError
	)
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &extractErr):
		return "extraction"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &structureErr):
		return "structure"
	default:
		return "other"
	}
}
