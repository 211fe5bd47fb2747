package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestServeCommandHelp(t *testing.T) {
	cmd := newServeCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("serve command --help failed: %v", err)
	}

	output := buf.String()

	expectedStrings := []string{
		"Start the HTTP server together with the background scheduler",
		"--host",
		"--port",
		"server host address",
		"server port",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("expected help text to contain %q, got:\n%s", expected, output)
		}
	}
}

func TestServeCommandFlags(t *testing.T) {
	cmd := newServeCommand()

	flags := []string{"host", "port"}
	for _, flag := range flags {
		if f := cmd.Flags().Lookup(flag); f == nil {
			t.Errorf("expected flag %q to be defined on serve command", flag)
		}
	}
}

func TestServeCommandInvalidPort(t *testing.T) {
	cmd := newServeCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--port", "invalid"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestServeCommandGlobalFlags(t *testing.T) {
	root := newRootCommand()

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"serve", "--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("serve command with global flags failed: %v", err)
	}

	output := buf.String()

	globalFlags := []string{"--env-file", "--log-level", "--log-format"}
	for _, flag := range globalFlags {
		if !strings.Contains(output, flag) {
			t.Errorf("expected help text to contain global flag %q, got:\n%s", flag, output)
		}
	}
}

func TestServeFailsWithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if err := runServer(serveOptions{}); err == nil || !strings.Contains(err.Error(), "config error") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://test")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig should succeed with minimal env vars: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://test")

	logLevel = "debug"
	logFormat = "console"
	defer func() {
		logLevel = ""
		logFormat = ""
	}()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected log format 'console', got %s", cfg.Logging.Format)
	}
}

func TestLoadConfigMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := loadConfig(); err != nil {
		t.Errorf("loadConfig should not need DATABASE_URL: %v", err)
	}
	if _, err := loadDatabaseConfig(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL error from loadDatabaseConfig, got %v", err)
	}
}
