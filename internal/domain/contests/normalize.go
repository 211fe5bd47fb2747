package contests

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Togather-Foundation/contests/internal/sanitize"
)

// RawContest is the platform-specific record an adapter hands to the
// Normalizer. Times may arrive either already decoded (StartTime/EndTime) or
// as free text (StartText/EndText) that the Normalizer parses.
type RawContest struct {
	Name       string
	Link       string
	StartTime  time.Time
	EndTime    time.Time
	StartText  string
	EndText    string
	StatusHint Status // platform-reported status; empty means derive from times
}

// TimeParser turns a free-text date into an absolute time.
type TimeParser func(string) (time.Time, error)

// Normalizer maps raw records onto the canonical Contest shape.
type Normalizer struct {
	ParseTime TimeParser
	Now       func() time.Time
}

// NewNormalizer returns a Normalizer using parse for free-text dates.
// A nil parse falls back to ParseTimeLayouts.
func NewNormalizer(parse TimeParser) *Normalizer {
	if parse == nil {
		parse = ParseTimeLayouts
	}
	return &Normalizer{ParseTime: parse, Now: time.Now}
}

var collapseSpaces = regexp.MustCompile(`\s+`)

// Normalize produces a canonical Contest owned by platform, or a
// *NormalizationError naming the offending field.
func (n *Normalizer) Normalize(raw RawContest, platform Platform) (Contest, error) {
	if _, err := ParsePlatform(string(platform)); err != nil {
		return Contest{}, &NormalizationError{Field: "platform", Reason: err.Error()}
	}

	name := CleanName(raw.Name)
	if name == "" {
		return Contest{}, &NormalizationError{Field: "name", Reason: "missing"}
	}

	link := strings.TrimSpace(raw.Link)
	if link == "" {
		return Contest{}, &NormalizationError{Field: "link", Reason: "missing"}
	}
	if u, err := url.Parse(link); err != nil || !u.IsAbs() || u.Host == "" {
		return Contest{}, &NormalizationError{Field: "link", Reason: fmt.Sprintf("not an absolute URL: %q", link)}
	}

	start, err := n.resolveTime("startTime", raw.StartTime, raw.StartText)
	if err != nil {
		return Contest{}, err
	}
	end, err := n.resolveTime("endTime", raw.EndTime, raw.EndText)
	if err != nil {
		return Contest{}, err
	}

	duration, err := DurationMinutes(start, end)
	if err != nil {
		return Contest{}, err
	}

	status := raw.StatusHint
	if status == "" {
		now := time.Now
		if n.Now != nil {
			now = n.Now
		}
		status = ResolveStatus(start, end, now())
	} else if _, err := ParseStatus(string(status)); err != nil {
		return Contest{}, &NormalizationError{Field: "status", Reason: err.Error()}
	}

	return Contest{
		Name:      name,
		Platform:  platform,
		Link:      link,
		StartTime: start,
		EndTime:   end,
		Duration:  duration,
		Status:    status,
	}, nil
}

func (n *Normalizer) resolveTime(field string, decoded time.Time, text string) (time.Time, error) {
	if !decoded.IsZero() {
		return decoded.UTC(), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, &NormalizationError{Field: field, Reason: "missing"}
	}
	parse := n.ParseTime
	if parse == nil {
		parse = ParseTimeLayouts
	}
	parsed, err := parse(text)
	if err != nil || parsed.IsZero() {
		return time.Time{}, &NormalizationError{Field: field, Reason: fmt.Sprintf("unparsable date %q", text)}
	}
	return parsed.UTC(), nil
}

// DurationMinutes returns the whole minutes between start and end, floored.
// An end before start is rejected rather than producing a negative duration.
func DurationMinutes(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, &NormalizationError{
			Field:  "endTime",
			Reason: fmt.Sprintf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)),
		}
	}
	return int(end.Sub(start) / time.Minute), nil
}

// CleanName strips markup and collapses whitespace so that the same title
// scraped twice yields the same dedup key.
func CleanName(name string) string {
	name = sanitize.Text(name)
	return strings.TrimSpace(collapseSpaces.ReplaceAllString(name, " "))
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02 Jan 2006 15:04:05",
	"02 Jan 2006  15:04:05",
	"02 Jan 2006 15:04",
	"Jan 2, 2006 15:04",
	"2006-01-02",
}

// ParseTimeLayouts parses text against a fixed set of common layouts,
// interpreting zone-less values as UTC.
func ParseTimeLayouts(text string) (time.Time, error) {
	return ParseTimeLayoutsIn(text, time.UTC)
}

// ParseTimeLayoutsIn is ParseTimeLayouts with zone-less values read in loc.
// The result is always in UTC.
func ParseTimeLayoutsIn(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no known layout matches %q", text)
}
