package scraper

import (
	"context"
	"errors"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// PageLoader retrieves an HTML page and returns its root element.
type PageLoader interface {
	Load(ctx context.Context, rawURL string) (*goquery.Selection, error)
}

var errNotHTML = errors.New("response contained no HTML document")

// CollyLoader loads static pages with Colly. Rate limiting and robots.txt
// checks go through the shared Fetcher so they match every other request.
type CollyLoader struct {
	fetcher *Fetcher
	logger  zerolog.Logger
}

func NewCollyLoader(fetcher *Fetcher, logger zerolog.Logger) *CollyLoader {
	return &CollyLoader{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "colly").Logger(),
	}
}

func (l *CollyLoader) Load(ctx context.Context, rawURL string) (*goquery.Selection, error) {
	if err := l.fetcher.Acquire(ctx, rawURL); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(l.fetcher.UserAgent()),
		colly.StdlibContext(ctx),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(l.fetcher.Timeout())

	var (
		mu      sync.Mutex
		root    *goquery.Selection
		loadErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		l.logger.Debug().Str("url", r.URL.String()).Msg("visiting page")
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if root == nil {
			root = e.DOM
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if r != nil && r.StatusCode >= 300 {
			loadErr = &StatusError{Code: r.StatusCode}
			return
		}
		loadErr = err
	})

	visitErr := c.Visit(rawURL)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	switch {
	case loadErr != nil:
		return nil, loadErr
	case visitErr != nil:
		return nil, visitErr
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case root == nil:
		return nil, errNotHTML
	}
	return root, nil
}
