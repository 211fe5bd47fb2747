package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError represents a URL validation failure
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL requires an absolute http(s) URL with a host. Surrounding
// whitespace is rejected rather than trimmed; callers trim first.
func ValidateURL(urlString, fieldName string) error {
	fail := func(msg string) error {
		return URLValidationError{Field: fieldName, Message: msg, URL: urlString}
	}

	if urlString == "" {
		return fail("required")
	}
	if strings.TrimSpace(urlString) != urlString {
		return fail("must not contain surrounding whitespace")
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fail("invalid URL format")
	}
	if parsedURL.Scheme == "" {
		return fail("URL must include a scheme (http:// or https://)")
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fail("URL scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return fail("URL must include a host")
	}
	return nil
}
