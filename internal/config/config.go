// Package config provides the runtime configuration, loaded from environment
// variables (optionally from a .env file) and an embedded league registry.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings populated from environment variables
type Config struct {
	// Source site
	BaseURL        string
	UserAgent      string
	AcceptLanguage string

	// Fetching
	MaxRetries        int
	BackoffBase       float64
	BackoffUnit       time.Duration
	RequestDelayMin   time.Duration
	RequestDelayMax   time.Duration
	RequestsPerMinute int
	RequestTimeout    time.Duration

	// Scrape orchestration
	SeasonPause    time.Duration
	LeaguePause    time.Duration
	MinStartYear   int
	FinalYear      int
	CheckpointFile string
	LeaguesFile    string

	// Storage
	RawDataDir       string
	ProcessedDataDir string

	// Reconciliation
	ImputationStrategy string
	ProcessWorkers     int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults for unset
// values. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		BaseURL:        strings.TrimRight(envOr("BASE_URL", "https://www.transfermarkt.com.br"), "/"),
		UserAgent:      envOr("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"),
		AcceptLanguage: envOr("ACCEPT_LANGUAGE", "en-US,en;q=0.9,pt;q=0.8"),

		MaxRetries:        envInt("MAX_RETRIES", 5),
		BackoffBase:       envFloat("BACKOFF_BASE", 2),
		BackoffUnit:       time.Second,
		RequestDelayMin:   envSeconds("REQUEST_DELAY_MIN_SECONDS", 3),
		RequestDelayMax:   envSeconds("REQUEST_DELAY_MAX_SECONDS", 12),
		RequestsPerMinute: envInt("REQUESTS_PER_MINUTE", 10),
		RequestTimeout:    envSeconds("REQUEST_TIMEOUT_SECONDS", 20),

		SeasonPause:    envSeconds("SEASON_PAUSE_SECONDS", 30),
		LeaguePause:    envSeconds("LEAGUE_PAUSE_SECONDS", 120),
		MinStartYear:   envInt("MIN_START_YEAR", 1990),
		FinalYear:      envInt("FINAL_YEAR", 2024),
		CheckpointFile: envOr("CHECKPOINT_FILE", ""),
		LeaguesFile:    envOr("LEAGUES_FILE", ""),

		RawDataDir:       envOr("RAW_DATA_DIR", "data/raw"),
		ProcessedDataDir: envOr("PROCESSED_DATA_DIR", "data/processed"),

		ImputationStrategy: strings.ToLower(envOr("IMPUTATION_STRATEGY", "ffill_bfill")),
		ProcessWorkers:     envInt("PROCESS_WORKERS", 1),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
	}

	if cfg.CheckpointFile == "" {
		cfg.CheckpointFile = cfg.RawDataDir + "/checkpoint.json"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("BASE_URL must be set")
	case c.MaxRetries < 1:
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	case c.BackoffBase < 1:
		return fmt.Errorf("BACKOFF_BASE must be at least 1, got %g", c.BackoffBase)
	case c.RequestDelayMin < 0 || c.RequestDelayMax < c.RequestDelayMin:
		return fmt.Errorf("request delay range is invalid: %s..%s", c.RequestDelayMin, c.RequestDelayMax)
	case c.RequestsPerMinute < 0:
		return fmt.Errorf("REQUESTS_PER_MINUTE must not be negative")
	case c.FinalYear < c.MinStartYear:
		return fmt.Errorf("FINAL_YEAR %d is before MIN_START_YEAR %d", c.FinalYear, c.MinStartYear)
	case c.ProcessWorkers < 1:
		return fmt.Errorf("PROCESS_WORKERS must be at least 1, got %d", c.ProcessWorkers)
	}

	switch c.ImputationStrategy {
	case "ffill_bfill", "mean", "median", "mode":
	default:
		return fmt.Errorf("unknown IMPUTATION_STRATEGY: %s", c.ImputationStrategy)
	}
	return nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envSeconds(key string, fallback float64) time.Duration {
	return time.Duration(envFloat(key, fallback) * float64(time.Second))
}
