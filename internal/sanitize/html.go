// Package sanitize strips markup from scraped text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text. Entities produced by the
// policy (e.g. "&amp;") are decoded again so stored names read naturally.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}
