package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Schedule    ScheduleConfig
	Scraper     ScraperConfig
	Solutions   SolutionsConfig
	Alerts      AlertsConfig
	CORS        CORSConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MigrationsPath string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

// ScheduleConfig controls the two periodic jobs.
type ScheduleConfig struct {
	RefreshInterval time.Duration
	StatusInterval  time.Duration
	RefreshOnStart  bool
}

// ScraperConfig is shared by every outbound fetch.
type ScraperConfig struct {
	Timeout       time.Duration
	RateLimit     float64 // requests per second per host
	UserAgent     string
	RespectRobots bool
	PlatformsFile string
	BrowserURL    string // DevTools endpoint for browser rendering; empty launches a local browser
}

// SolutionsConfig maps a platform to its playlist URL or id. Platforms
// without an entry are skipped during enrichment.
type SolutionsConfig struct {
	Playlists map[string]string
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

type AlertsConfig struct {
	ResendAPIKey string
	From         string
	To           string
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MigrationsPath: getEnv("DATABASE_MIGRATIONS_PATH", "internal/storage/postgres/migrations"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "contests-server"),
			OTLPEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Schedule: ScheduleConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 6*time.Hour),
			StatusInterval:  getEnvDuration("STATUS_INTERVAL", time.Hour),
			RefreshOnStart:  getEnvBool("REFRESH_ON_START", true),
		},
		Scraper: ScraperConfig{
			Timeout:       getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
			RateLimit:     getEnvFloat("FETCH_RATE_LIMIT", 1.0),
			UserAgent:     getEnv("SCRAPER_USER_AGENT", DefaultUserAgent),
			RespectRobots: getEnvBool("SCRAPER_RESPECT_ROBOTS", false),
			PlatformsFile: getEnv("PLATFORMS_FILE", "configs/platforms.yaml"),
			BrowserURL:    getEnv("BROWSER_CONTROL_URL", ""),
		},
		Solutions: SolutionsConfig{
			Playlists: playlistsFromEnv(),
		},
		Alerts: AlertsConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("ALERT_EMAIL_FROM", ""),
			To:           getEnv("ALERT_EMAIL_TO", ""),
		},
		CORS:        corsFromEnv(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Schedule.RefreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if cfg.Schedule.StatusInterval <= 0 {
		return Config{}, fmt.Errorf("STATUS_INTERVAL must be positive")
	}
	if cfg.Scraper.Timeout <= 0 {
		return Config{}, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	return cfg, nil
}

// Validate reports settings that only matter once a connection is opened.
// Load does not call it so offline commands work without a database.
func (d DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// corsFromEnv parses a comma separated origin list. "*" allows every origin.
func corsFromEnv(value string) CORSConfig {
	var cfg CORSConfig
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			cfg.AllowAllOrigins = true
		default:
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	return cfg
}

// playlistsFromEnv reads YOUTUBE_<PLATFORM>_PLAYLIST_ID for each known platform.
func playlistsFromEnv() map[string]string {
	playlists := make(map[string]string)
	for _, platform := range []string{"codeforces", "codechef"} {
		key := "YOUTUBE_" + strings.ToUpper(platform) + "_PLAYLIST_ID"
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			playlists[platform] = value
		}
	}
	return playlists
}

// LoadEnvFile sets variables from a KEY=VALUE file without overriding values
// already present in the environment. A missing file is ignored.
func LoadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
