package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL_ValidURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"HTTP URL", "http://example.com"},
		{"HTTPS URL", "https://example.com"},
		{"Video link", "https://www.youtube.com/watch?v=abc123"},
		{"URL with path", "https://example.com/path/to/resource"},
		{"URL with fragment", "https://example.com#section"},
		{"URL with port", "https://example.com:8080/path"},
		{"Uppercase scheme", "HTTPS://example.com"},
		{"Localhost", "http://localhost:3000"},
		{"IPv6", "https://[::1]:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateURL(tt.url, "solution_link"); err != nil {
				t.Errorf("ValidateURL(%q) returned error: %v", tt.url, err)
			}
		})
	}
}

func TestValidateURL_InvalidURLs(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedError string
	}{
		{"Empty", "", "required"},
		{"Padded", " https://example.com ", "surrounding whitespace"},
		{"No scheme", "example.com", "must include a scheme"},
		{"Invalid scheme", "ftp://example.com", "scheme must be http or https"},
		{"Javascript", "javascript:alert(1)", "scheme must be http or https"},
		{"No host", "https://", "must include a host"},
		{"Malformed URL", "ht!tp://example.com", "invalid URL format"},
		{"Just scheme", "https", "must include a scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, "solution_link")
			if err == nil {
				t.Fatalf("ValidateURL(%q) should return error", tt.url)
			}
			if !strings.Contains(err.Error(), tt.expectedError) {
				t.Errorf("Error message %q should contain %q", err.Error(), tt.expectedError)
			}

			var urlErr URLValidationError
			if !errors.As(err, &urlErr) || urlErr.Field != "solution_link" {
				t.Errorf("expected URLValidationError for field solution_link, got %#v", err)
			}
		})
	}
}

func TestURLValidationError_ErrorMessage(t *testing.T) {
	err := URLValidationError{
		Field:   "solution_link",
		Message: "URL must include a host",
		URL:     "https://",
	}

	expected := "solution_link: URL must include a host (url: https://)"
	if err.Error() != expected {
		t.Errorf("Error message mismatch:\ngot:  %s\nwant: %s", err.Error(), expected)
	}
}

func BenchmarkValidateURL(b *testing.B) {
	url := "https://example.com/path/to/resource"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateURL(url, "solution_link")
	}
}
