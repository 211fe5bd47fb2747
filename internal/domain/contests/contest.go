// Package contests defines the canonical contest model, its lifecycle rules,
// and the persistence port the aggregation pipeline writes through.
package contests

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the origin site that owns a contest record.
type Platform string

const (
	PlatformCodeforces Platform = "codeforces"
	PlatformCodeChef   Platform = "codechef"
)

// Platforms lists every supported platform in a stable order.
var Platforms = []Platform{PlatformCodeforces, PlatformCodeChef}

// ParsePlatform validates a platform tag (case-insensitive).
func ParsePlatform(value string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, value)
}

// Status is the derived lifecycle state of a contest.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status value.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

// Contest is the canonical, persisted contest shape.
type Contest struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Platform     Platform  `json:"platform"`
	Link         string    `json:"link"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Duration     int       `json:"duration"` // minutes
	Status       Status    `json:"status"`
	SolutionLink *string   `json:"solutionLink"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// Key is the natural identity used for deduplication.
type Key struct {
	Name     string
	Platform Platform
}

func (k Key) String() string {
	return string(k.Platform) + "/" + k.Name
}

// Key returns the (name, platform) identity of c.
func (c Contest) Key() Key {
	return Key{Name: c.Name, Platform: c.Platform}
}

// VideoSolution is one discovered solution video. It is never persisted.
type VideoSolution struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
