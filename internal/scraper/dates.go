package scraper

import (
	"fmt"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

// NewTimeParser returns a parser for free-text contest dates. Known layouts
// are tried first; anything else goes through go-dateparser. Values without
// an explicit zone are read in loc.
func NewTimeParser(loc *time.Location) contests.TimeParser {
	if loc == nil {
		loc = time.UTC
	}
	cfg := &dateparser.Configuration{
		Languages:       []string{"en"},
		DefaultTimezone: loc,
	}
	return func(text string) (time.Time, error) {
		if t, err := contests.ParseTimeLayoutsIn(text, loc); err == nil {
			return t, nil
		}
		parsed, err := dateparser.Parse(cfg, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", text, err)
		}
		if parsed.Time.IsZero() {
			return time.Time{}, fmt.Errorf("parse date %q: no date found", text)
		}
		return parsed.Time.UTC(), nil
	}
}
