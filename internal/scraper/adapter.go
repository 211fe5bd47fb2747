package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/metrics"
)

const tracerName = "github.com/Togather-Foundation/contests/internal/scraper"

// Adapter fetches one platform's contest listing. Fetch is best effort: it
// never returns an error and yields an empty result on total failure.
type Adapter interface {
	Platform() contests.Platform
	Fetch(ctx context.Context) []contests.Contest
}

var (
	_ Adapter = (*CodeforcesAdapter)(nil)
	_ Adapter = (*CodeChefAdapter)(nil)
)

// BuildAdapters creates one adapter per enabled source. HTML sources with
// render "browser" are loaded through a headless browser at browserURL, or a
// locally launched one when browserURL is empty.
func BuildAdapters(sources []config.PlatformSource, fetcher *Fetcher, browserURL string, logger zerolog.Logger) ([]Adapter, error) {
	var adapters []Adapter
	for _, src := range sources {
		if !src.IsEnabled() {
			continue
		}
		platform, err := contests.ParsePlatform(src.Name)
		if err != nil {
			return nil, fmt.Errorf("platform source %q: %w", src.Name, err)
		}
		switch platform {
		case contests.PlatformCodeforces:
			adapters = append(adapters, NewCodeforcesAdapter(src, fetcher, logger))
		case contests.PlatformCodeChef:
			var loader PageLoader = NewCollyLoader(fetcher, logger)
			if src.Render == config.RenderBrowser {
				loader = NewBrowserLoader(fetcher, browserURL, logger)
			}
			adapters = append(adapters, NewCodeChefAdapter(src, loader, logger))
		default:
			return nil, fmt.Errorf("no adapter for platform %q", platform)
		}
	}
	return adapters, nil
}

// normalizeAll maps raws onto canonical contests, logging and skipping rows
// the Normalizer rejects.
func normalizeAll(n *contests.Normalizer, raws []contests.RawContest, platform contests.Platform, logger zerolog.Logger) []contests.Contest {
	out := make([]contests.Contest, 0, len(raws))
	for _, raw := range raws {
		c, err := n.Normalize(raw, platform)
		if err != nil {
			metrics.AdapterFailures.WithLabelValues(string(platform), "normalize").Inc()
			logger.Warn().Err(err).Str("name", raw.Name).Str("link", raw.Link).Msg("skipping contest row")
			continue
		}
		out = append(out, c)
	}
	return out
}

func recordAdapterFailure(logger zerolog.Logger, platform contests.Platform, err error) {
	reason := failureReason(err)
	metrics.AdapterFailures.WithLabelValues(string(platform), reason).Inc()
	logger.Error().Err(err).Str("reason", reason).Msg("adapter failed, returning no contests")
}

func recordRowFailure(logger zerolog.Logger, platform contests.Platform, rowErr RowError) {
	metrics.AdapterFailures.WithLabelValues(string(platform), failureReason(rowErr)).Inc()
	logger.Warn().Err(rowErr).Str("selector", rowErr.Selector).Int("row", rowErr.Index).Msg("skipping unreadable row")
}

func failureReason(err error) string {
	var (
		fetchErr     *contests.FetchError
		parseErr     *contests.ParseError
		structureErr *contests.StructureError
		extractErr   *contests.ExtractionError
		normErr      *contests.NormalizationError
	)
	switch {
	case errors.As(err, &fetchErr):
		if IsTimeout(err) {
			return "timeout"
		}
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &structureErr):
		return "structure"
	case errors.As(err, &extractErr):
		return "extraction"
	case errors.As(err, &normErr):
		return "normalize"
	default:
		return "other"
	}
}
