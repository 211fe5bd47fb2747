package solutions

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

// InitialDataMarker precedes the playlist page's embedded JSON.
const InitialDataMarker = "var ytInitialData = "

// playlistItemsPath is a gjson path to the video list inside the embedded
// JSON. It is the only place that knows the upstream layout.
const playlistItemsPath = "contents.twoColumnBrowseResultsRenderer.tabs.0.tabRenderer.content" +
	".sectionListRenderer.contents.0.itemSectionRenderer.contents.0" +
	".playlistVideoListRenderer.contents"

const watchURL = "https://www.youtube.com/watch?v="

// ExtractInitialData returns the JSON text assigned after InitialDataMarker
// in the page's inline scripts, or an *ExtractionError when no script
// carries the marker.
func ExtractInitialData(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &contests.ParseError{Source: "playlist page", Err: err}
	}

	var blob string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, InitialDataMarker)
		if idx < 0 {
			return true
		}
		blob = strings.TrimSpace(text[idx+len(InitialDataMarker):])
		blob = strings.TrimSpace(strings.TrimSuffix(blob, ";"))
		return false
	})

	if blob == "" {
		return nil, &contests.ExtractionError{Source: "playlist page", Marker: InitialDataMarker}
	}
	return []byte(blob), nil
}

// ParsePlaylistVideos queries the embedded JSON for the video list. Invalid
// JSON yields a *ParseError; a missing path a *StructureError. Entries that
// are not video renderers (continuations, shelves) are skipped.
func ParsePlaylistVideos(blob []byte) ([]contests.VideoSolution, error) {
	if !gjson.ValidBytes(blob) {
		return nil, &contests.ParseError{Source: "ytInitialData", Err: errInvalidJSON}
	}

	items := gjson.GetBytes(blob, playlistItemsPath)
	if !present(items) {
		return nil, &contests.StructureError{Source: "ytInitialData", Path: missingPrefix(blob, playlistItemsPath)}
	}
	if !items.IsArray() {
		return nil, &contests.StructureError{Source: "ytInitialData", Path: playlistItemsPath}
	}

	entries := items.Array()
	videos := make([]contests.VideoSolution, 0, len(entries))
	for _, item := range entries {
		renderer := item.Get("playlistVideoRenderer")
		if !renderer.IsObject() {
			continue
		}
		id := stringAt(renderer, "videoId")
		if id == "" {
			continue
		}
		title := stringAt(renderer, "title.simpleText")
		if title == "" {
			title = stringAt(renderer, "title.runs.0.text")
		}
		videos = append(videos, contests.VideoSolution{Title: title, URL: watchURL + id})
	}
	return videos, nil
}

var errInvalidJSON = errors.New("invalid JSON")

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func stringAt(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// missingPrefix returns path up to and including its first absent segment.
func missingPrefix(blob []byte, path string) string {
	segments := strings.Split(path, ".")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], ".")
		if !present(gjson.GetBytes(blob, prefix)) {
			return prefix
		}
	}
	return path
}
