package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// BrowserLoader renders pages in a headless Chromium through go-rod, for
// listings that are filled in by client-side scripts. With an empty
// controlURL a local browser is launched per load and torn down afterwards.
type BrowserLoader struct {
	fetcher    *Fetcher
	controlURL string
	logger     zerolog.Logger
}

func NewBrowserLoader(fetcher *Fetcher, controlURL string, logger zerolog.Logger) *BrowserLoader {
	return &BrowserLoader{
		fetcher:    fetcher,
		controlURL: controlURL,
		logger:     logger.With().Str("component", "browser").Logger(),
	}
}

func (l *BrowserLoader) Load(ctx context.Context, rawURL string) (*goquery.Selection, error) {
	if err := l.fetcher.Acquire(ctx, rawURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.fetcher.Timeout())
	defer cancel()

	controlURL := l.controlURL
	if controlURL == "" {
		launch := launcher.New().Context(ctx).Headless(true)
		defer launch.Cleanup()
		defer launch.Kill()

		u, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			l.logger.Debug().Err(err).Msg("closing browser")
		}
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read rendered HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered HTML: %w", err)
	}
	l.logger.Debug().Str("url", rawURL).Int("bytes", len(html)).Msg("rendered page")
	return doc.Selection, nil
}
