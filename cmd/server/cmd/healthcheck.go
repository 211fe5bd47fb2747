package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/contests/internal/api/handlers"
)

// errInvalidResponse marks a reachable server that returned an unreadable body.
var errInvalidResponse = errors.New("invalid health response")

func newHealthcheckCommand() *cobra.Command {
	var (
		timeout time.Duration
		url     string
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a readiness check by calling the /readyz endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.

Exit codes:
  0 - Server is healthy
  1 - Server is unhealthy, degraded or unreachable
  2 - Invalid response from server`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = defaultHealthURL()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := performHealthCheck(ctx, url)
			switch {
			case errors.Is(err, errInvalidResponse):
				fmt.Fprintf(cmd.ErrOrStderr(), "Health check failed: %v\n", err)
				os.Exit(2)
			case err != nil:
				return fmt.Errorf("health check failed: %w", err)
			case result.Status != "healthy":
				return fmt.Errorf("server status: %s", result.Status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&url, "url", "", "readiness URL (default: http://localhost:{SERVER_PORT}/readyz)")
	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/readyz", port)
}

// performHealthCheck fetches url and decodes the readiness report. A 503 with
// a valid body is returned without error so callers can inspect the checks.
func performHealthCheck(ctx context.Context, url string) (*handlers.HealthCheck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result handlers.HealthCheck
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidResponse, err)
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing status", errInvalidResponse)
	}
	return &result, nil
}
