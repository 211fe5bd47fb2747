package solutions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

const initialDataFixture = `{"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"playlistVideoListRenderer":{"contents":[
  {"playlistVideoRenderer":{"videoId":"abc123","title":{"simpleText":"Codeforces Round 990 | Solutions"}}},
  {"playlistVideoRenderer":{"videoId":"def456","title":{"runs":[{"text":"Educational Round 170 | A-D"}]}}},
  {"playlistVideoRenderer":{"title":{"simpleText":"Private video"}}},
  {"continuationItemRenderer":{"trigger":"CONTINUATION_TRIGGER_ON_ITEM_SHOWN"}}
]}}]}}]}}}}]}}}`

func playlistPage(blob string) []byte {
	return []byte(`<!DOCTYPE html><html><head>
<script nonce="x">window.ytcfg = {};</script>
<script nonce="y">var ytInitialData = ` + blob + `;</script>
</head><body></body></html>`)
}

func TestExtractInitialData(t *testing.T) {
	blob, err := ExtractInitialData(playlistPage(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(blob))
}

func TestExtractInitialData_MissingMarker(t *testing.T) {
	_, err := ExtractInitialData([]byte(`<html><script>var somethingElse = {};</script></html>`))

	var extractErr *contests.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, InitialDataMarker, extractErr.Marker)
}

func TestParsePlaylistVideos(t *testing.T) {
	videos, err := ParsePlaylistVideos([]byte(initialDataFixture))
	require.NoError(t, err)

	assert.Equal(t, []contests.VideoSolution{
		{Title: "Codeforces Round 990 | Solutions", URL: "https://www.youtube.com/watch?v=abc123"},
		{Title: "Educational Round 170 | A-D", URL: "https://www.youtube.com/watch?v=def456"},
	}, videos)
}

func TestParsePlaylistVideos_InvalidJSON(t *testing.T) {
	_, err := ParsePlaylistVideos([]byte(`{"contents": {`))

	var parseErr *contests.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParsePlaylistVideos_LayoutChanged(t *testing.T) {
	tests := []struct {
		name     string
		blob     string
		wantPath string
	}{
		{
			name:     "missing root",
			blob:     `{"header":{}}`,
			wantPath: "contents",
		},
		{
			name:     "empty tabs",
			blob:     `{"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[]}}}`,
			wantPath: "contents.twoColumnBrowseResultsRenderer.tabs.0",
		},
		{
			name:     "renderer renamed",
			blob:     `{"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"richGridRenderer":{}}}}]}}}`,
			wantPath: "contents.twoColumnBrowseResultsRenderer.tabs.0.tabRenderer.content.sectionListRenderer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlaylistVideos([]byte(tt.blob))

			var structureErr *contests.StructureError
			require.ErrorAs(t, err, &structureErr)
			assert.Equal(t, tt.wantPath, structureErr.Path)
		})
	}
}

func TestParsePlaylistVideos_ListNotArray(t *testing.T) {
	blob := `{"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"playlistVideoListRenderer":{"contents":{"unexpected":true}}}]}}]}}}}]}}}`

	_, err := ParsePlaylistVideos([]byte(blob))

	var structureErr *contests.StructureError
	require.ErrorAs(t, err, &structureErr)
	assert.Equal(t, playlistItemsPath, structureErr.Path)
}

func TestParsePlaylistVideos_NullSegmentIsMissing(t *testing.T) {
	_, err := ParsePlaylistVideos([]byte(`{"contents":null}`))

	var structureErr *contests.StructureError
	require.ErrorAs(t, err, &structureErr)
	assert.Equal(t, "contents", structureErr.Path)
}
