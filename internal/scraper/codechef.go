package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/telemetry"
)

// RowError describes one table row that could not be read.
type RowError struct {
	Selector string
	Index    int
	Err      error
}

func (e RowError) Unwrap() error { return e.Err }

func (e RowError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.Selector, e.Index, e.Err)
}

// ParseCodeChefRows reads every row of every section table under doc. The
// first cell holds the name and a link relative to baseURL, the second and
// third the start and end dates as free text. Status comes from the section.
// Rows with fewer than three cells are reported and skipped.
func ParseCodeChefRows(doc *goquery.Selection, sections []config.SectionSource, baseURL string) ([]contests.RawContest, []RowError) {
	base, _ := url.Parse(baseURL)

	var (
		raws    []contests.RawContest
		rowErrs []RowError
	)
	for _, section := range sections {
		doc.Find(section.Selector).Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 3 {
				rowErrs = append(rowErrs, RowError{
					Selector: section.Selector,
					Index:    i,
					Err:      &contests.StructureError{Source: "codechef", Path: "td[0..2]"},
				})
				return
			}

			first := cells.Eq(0)
			href, _ := first.Find("a").Attr("href")
			raws = append(raws, contests.RawContest{
				Name:       first.Text(),
				Link:       resolveLink(base, href),
				StartText:  strings.TrimSpace(cells.Eq(1).Text()),
				EndText:    strings.TrimSpace(cells.Eq(2).Text()),
				StatusHint: contests.Status(section.Status),
			})
		})
	}
	return raws, rowErrs
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// CodeChefAdapter scrapes the CodeChef contests page, one table per status.
type CodeChefAdapter struct {
	source     config.PlatformSource
	loader     PageLoader
	normalizer *contests.Normalizer
	logger     zerolog.Logger
}

func NewCodeChefAdapter(source config.PlatformSource, loader PageLoader, logger zerolog.Logger) *CodeChefAdapter {
	return &CodeChefAdapter{
		source:     source,
		loader:     loader,
		normalizer: contests.NewNormalizer(NewTimeParser(source.Location())),
		logger:     logger.With().Str("component", "adapter").Str("platform", string(contests.PlatformCodeChef)).Logger(),
	}
}

func (a *CodeChefAdapter) Platform() contests.Platform { return contests.PlatformCodeChef }

// Fetch never fails: a page that cannot be loaded yields nil, and rows that
// cannot be read or normalized are skipped.
func (a *CodeChefAdapter) Fetch(ctx context.Context) []contests.Contest {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "adapter.codechef")
	defer span.End()

	doc, err := a.loader.Load(ctx, a.source.URL)
	if err != nil {
		err = &contests.FetchError{Platform: contests.PlatformCodeChef, URL: a.source.URL, Err: err}
		recordAdapterFailure(a.logger, contests.PlatformCodeChef, err)
		telemetry.RecordError(span, err)
		return nil
	}

	baseURL := a.source.BaseURL
	if baseURL == "" {
		baseURL = a.source.URL
	}
	raws, rowErrs := ParseCodeChefRows(doc, a.source.Sections, baseURL)
	for _, rowErr := range rowErrs {
		recordRowFailure(a.logger, contests.PlatformCodeChef, rowErr)
	}
	if len(raws) == 0 && len(rowErrs) == 0 {
		err := &contests.StructureError{Source: "codechef", Path: sectionSelectors(a.source.Sections)}
		recordAdapterFailure(a.logger, contests.PlatformCodeChef, err)
		telemetry.RecordError(span, err)
		return nil
	}

	out := normalizeAll(a.normalizer, raws, contests.PlatformCodeChef, a.logger)
	span.SetAttributes(
		attribute.Int("contests.count", len(out)),
		attribute.Int("rows.skipped", len(rowErrs)+len(raws)-len(out)),
	)
	return out
}

func sectionSelectors(sections []config.SectionSource) string {
	selectors := make([]string, 0, len(sections))
	for _, s := range sections {
		selectors = append(selectors, s.Selector)
	}
	return strings.Join(selectors, ", ")
}
