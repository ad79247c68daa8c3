package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// StorageConfig defines where uploads and per-session working
// directories live on disk.
type StorageConfig struct {
	UploadDir string
	TempDir   string
}

// PrintConfig defines external print tooling behavior and limits.
type PrintConfig struct {
	LocateTimeout  time.Duration
	StatusTimeout  time.Duration
	SubmitTimeout  time.Duration
	ConvertTimeout time.Duration
	// FallbackLPPath is checked as a last resort when lp cannot be
	// located through the usual probe order.
	FallbackLPPath string
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host  string
	Port  string
	Debug bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Storage StorageConfig
	Print   PrintConfig
	Server  ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/duplexprint.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_duplexprint",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// Storage defaults
	cfg.Storage = StorageConfig{
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		TempDir:   getEnv("TEMP_DIR", "temp"),
	}

	// Print tooling defaults
	cfg.Print = PrintConfig{
		LocateTimeout:  parseDuration(getEnv("PRINT_LOCATE_TIMEOUT", "5s"), 5*time.Second),
		StatusTimeout:  parseDuration(getEnv("PRINT_STATUS_TIMEOUT", "5s"), 5*time.Second),
		SubmitTimeout:  parseDuration(getEnv("PRINT_SUBMIT_TIMEOUT", "30s"), 30*time.Second),
		ConvertTimeout: parseDuration(getEnv("CONVERT_TIMEOUT", "60s"), 60*time.Second),
		FallbackLPPath: getEnv("PRINT_LP_FALLBACK", "/usr/bin/lp"),
	}

	// Server defaults
	cfg.Server = ServerConfig{
		Host:  getEnv("HOST", "0.0.0.0"),
		Port:  getEnv("PORT", "8000"),
		Debug: parseBool(getEnv("DEBUG", "false")),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
