package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all dashboard configuration.
type Config struct {
	Paths    PathsConfig
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Webhook  WebhookConfig
}

// PathsConfig locates artifacts, datasets and the prediction log.
type PathsConfig struct {
	Root          string
	DataDir       string
	PredictionLog string
	ORTLibPath    string   // empty: libonnxruntime.so next to the model
	LegacyRoots   []string // searched after Root and the working directory
	Overrides     CandidateOverrides
}

// CandidateOverrides replaces the built-in candidate lists for a slot when
// non-empty. Loaded from the YAML file named by SYMPTOMDASH_PATHS_FILE.
type CandidateOverrides struct {
	Model    []string `yaml:"model"`
	Features []string `yaml:"features"`
	Labels   []string `yaml:"labels"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port    string
	GinMode string
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// DatabaseConfig enables the optional Postgres mirror of the prediction log.
type DatabaseConfig struct {
	URL string
}

// WebhookConfig enables forwarding of prediction records over HTTP.
type WebhookConfig struct {
	URL           string
	Token         string
	BatchSize     int
	FlushInterval time.Duration
}

// Enabled reports whether a database URL was configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// Load reads configuration from a .env file (if present) and environment
// variables with sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	root := getenv("SYMPTOMDASH_ROOT", ".")
	cfg := Config{
		Paths: PathsConfig{
			Root:          root,
			DataDir:       getenv("SYMPTOMDASH_DATA_DIR", filepath.Join(root, "data", "processed")),
			PredictionLog: getenv("SYMPTOMDASH_PREDICTIONS", filepath.Join(root, "predictions.csv")),
			ORTLibPath:    os.Getenv("SYMPTOMDASH_ORT_LIB"),
			LegacyRoots:   splitList(os.Getenv("SYMPTOMDASH_LEGACY_ROOTS")),
		},
		Server: ServerConfig{
			Port:    getenv("PORT", "8501"),
			GinMode: getenv("GIN_MODE", "release"),
		},
		Log: LogConfig{
			Level:  getenv("SYMPTOMDASH_LOG_LEVEL", "info"),
			Format: getenv("SYMPTOMDASH_LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("SYMPTOMDASH_DATABASE_URL"),
		},
		Webhook: WebhookConfig{
			URL:           os.Getenv("SYMPTOMDASH_WEBHOOK_URL"),
			Token:         os.Getenv("SYMPTOMDASH_WEBHOOK_TOKEN"),
			BatchSize:     getenvInt("SYMPTOMDASH_WEBHOOK_BATCH", 20),
			FlushInterval: getenvDuration("SYMPTOMDASH_WEBHOOK_FLUSH", 5*time.Second),
		},
	}

	if path := os.Getenv("SYMPTOMDASH_PATHS_FILE"); path != "" {
		o, err := loadOverrides(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Paths.Overrides = o
	}

	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return Config{}, fmt.Errorf("config: PORT must be numeric, got %q", cfg.Server.Port)
	}
	return cfg, nil
}

func loadOverrides(path string) (CandidateOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CandidateOverrides{}, fmt.Errorf("config: read paths file: %w", err)
	}
	var o CandidateOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return CandidateOverrides{}, fmt.Errorf("config: parse paths file %s: %w", path, err)
	}
	return o, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// splitList splits a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
