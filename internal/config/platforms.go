package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	SourceKindAPI  = "api"
	SourceKindHTML = "html"

	RenderStatic  = "static"
	RenderBrowser = "browser"
)

// PlatformSource describes where and how contests for one platform are fetched.
// Timezone applies to free-text dates that carry no zone of their own.
type PlatformSource struct {
	Name       string          `yaml:"name" validate:"required,oneof=codeforces codechef"`
	Kind       string          `yaml:"kind" validate:"required,oneof=api html"`
	URL        string          `yaml:"url" validate:"required,url"`
	ContestURL string          `yaml:"contest_url" validate:"omitempty,url"`
	BaseURL    string          `yaml:"base_url" validate:"omitempty,url"`
	Render     string          `yaml:"render" validate:"omitempty,oneof=static browser"`
	Timezone   string          `yaml:"timezone" validate:"omitempty,timezone"`
	Sections   []SectionSource `yaml:"sections" validate:"required_if=Kind html,dive"`
	Playlist   string          `yaml:"playlist"`
	Enabled    *bool           `yaml:"enabled"`
}

// SectionSource is one table of contest rows on an HTML page.
type SectionSource struct {
	Selector string `yaml:"selector" validate:"required"`
	Status   string `yaml:"status" validate:"omitempty,oneof=upcoming ongoing completed"`
}

func (p PlatformSource) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Location resolves Timezone, defaulting to UTC.
func (p PlatformSource) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultPlatformSources returns the built-in definitions used when no file is present.
func DefaultPlatformSources() []PlatformSource {
	return []PlatformSource{
		{
			Name:       "codeforces",
			Kind:       SourceKindAPI,
			URL:        "https://codeforces.com/api/contest.list",
			ContestURL: "https://codeforces.com/contest/",
		},
		{
			Name:    "codechef",
			Kind:    SourceKindHTML,
			URL:     "https://www.codechef.com/contests",
			BaseURL: "https://www.codechef.com",
			Render:  RenderStatic,
			Sections: []SectionSource{
				{Selector: "#future-contests table tbody tr", Status: "upcoming"},
				{Selector: "#running-contests table tbody tr", Status: "ongoing"},
				{Selector: "#past-contests table tbody tr", Status: "completed"},
			},
		},
	}
}

// LoadPlatformSources reads platform definitions from path. A missing file
// yields the defaults. Playlists from the environment override file entries.
func LoadPlatformSources(path string, playlists map[string]string) ([]PlatformSource, error) {
	sources := DefaultPlatformSources()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read platforms file: %w", err)
		default:
			var fromFile []PlatformSource
			if err := yaml.Unmarshal(data, &fromFile); err != nil {
				return nil, fmt.Errorf("parse platforms file %s: %w", path, err)
			}
			sources = fromFile
		}
	}

	validate := validator.New()
	seen := make(map[string]bool, len(sources))
	for i := range sources {
		src := &sources[i]
		if src.Kind == SourceKindHTML && src.Render == "" {
			src.Render = RenderStatic
		}
		if err := validate.Struct(src); err != nil {
			return nil, fmt.Errorf("invalid platform source %q: %w", src.Name, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("duplicate platform source %q", src.Name)
		}
		seen[src.Name] = true
		if playlist, ok := playlists[src.Name]; ok {
			src.Playlist = playlist
		}
	}
	return sources, nil
}

// Playlists collects the configured playlist per enabled platform.
func Playlists(sources []PlatformSource) map[string]string {
	out := make(map[string]string)
	for _, src := range sources {
		if src.IsEnabled() && src.Playlist != "" {
			out[src.Name] = src.Playlist
		}
	}
	return out
}
