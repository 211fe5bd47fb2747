package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 1.0

	maxBodyBytes = 10 * 1024 * 1024
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Fetcher is the shared outbound HTTP client. Every request carries the
// configured timeout and user agent and waits on a per-host rate limiter.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	rps           float64
	respectRobots bool
	logger        zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	robots   map[string]*robotstxt.RobotsData
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRateLimit sets requests per second per host. Zero or less disables limiting.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		f.rps = rps
	}
}

func WithRobots(respect bool) FetcherOption {
	return func(f *Fetcher) {
		f.respectRobots = respect
	}
}

func NewFetcher(timeout time.Duration, logger zerolog.Logger, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "contests-aggregator/1.0",
		rps:       DefaultRateLimit,
		logger:    logger.With().Str("component", "fetcher").Logger(),
		limiters:  make(map[string]*rate.Limiter),
		robots:    make(map[string]*robotstxt.RobotsData),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Timeout() time.Duration { return f.client.Timeout }

func (f *Fetcher) UserAgent() string { return f.userAgent }

// Acquire blocks until a request to rawURL may be sent. It fails when ctx
// ends first or when robots.txt disallows the URL.
func (f *Fetcher) Acquire(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing scheme or host", rawURL)
	}

	if f.respectRobots {
		allowed, err := f.robotsAllowed(ctx, u)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", rawURL).Msg("robots.txt check failed, proceeding as allowed")
		} else if !allowed {
			return ErrDisallowed
		}
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		limit := rate.Inf
		if f.rps > 0 {
			limit = rate.Limit(f.rps)
		}
		l = rate.NewLimiter(limit, 1)
		f.limiters[host] = l
	}
	return l
}

// Get fetches rawURL and returns its body, capped at 10 MiB. Extra headers
// are applied after the default user agent and may override it.
func (f *Fetcher) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if err := f.Acquire(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for key, values := range header {
		req.Header[key] = values
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	f.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// IsTimeout reports whether err came from a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
