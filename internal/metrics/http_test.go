package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collection", "/api/v1/contests", "/api/v1/contests"},
		{"single contest", "/api/v1/contests/01HV6Y3Q2M8K", "/api/v1/contests/{id}"},
		{"solution link", "/api/v1/contests/01HV6Y3Q2M8K/solution", "/api/v1/contests/{id}/solution"},
		{"solutions fetch", "/api/v1/contests/solutions/fetch", "/api/v1/contests/solutions/fetch"},
		{"refresh", "/api/v1/contests/refresh", "/api/v1/contests/refresh"},
		{"health", "/healthz", "/healthz"},
		{"empty path", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
