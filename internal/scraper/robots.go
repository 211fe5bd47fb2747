package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// robotsAllowed checks u against its host's robots.txt, fetched once per
// host and cached for the lifetime of the Fetcher. Missing files allow
// everything; server errors disallow everything until the process restarts.
func (f *Fetcher) robotsAllowed(ctx context.Context, u *url.URL) (bool, error) {
	f.mu.Lock()
	data, ok := f.robots[u.Host]
	f.mu.Unlock()

	if !ok {
		var err error
		data, err = f.fetchRobots(ctx, u)
		if err != nil {
			return false, err
		}
		f.mu.Lock()
		f.robots[u.Host] = data
		f.mu.Unlock()
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, f.userAgent), nil
}

func (f *Fetcher) fetchRobots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		// Unparseable files are treated as absent.
		return robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	}
	return data, nil
}
