package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Backend API
	BaseURL        string
	RequestTimeout time.Duration

	// Local state
	StateFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the YAML shape of the optional config file.
type fileConfig struct {
	APIURL         string `yaml:"api_url"`
	RequestTimeout string `yaml:"request_timeout"`
	StateFile      string `yaml:"state_file"`
	LogFile        string `yaml:"log_file"`
	LogLevel       string `yaml:"log_level"`
}

// Load reads configuration from the optional config file and environment
// variables. Environment variables win over file values.
//
// The request timeout defaults high: the backend performs generative work
// (astrology reports, RAG retrieval) and a single chat turn can take minutes.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:        "http://localhost:8000",
		RequestTimeout: 2 * time.Minute,
		StateFile:      filepath.Join(configDir(), "session.json"),
		LogFile:        filepath.Join(configDir(), "astrochat.log"),
		LogLevel:       slog.LevelInfo,
	}

	if err := applyFile(&cfg, filepath.Join(configDir(), "config.yaml")); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)

	return cfg, nil
}

// configDir returns the directory for config, logs and persisted session
// state. Overridable for tests via ASTROCHAT_CONFIG_DIR.
func configDir() string {
	if dir := os.Getenv("ASTROCHAT_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "astrochat")
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.APIURL != "" {
		cfg.BaseURL = fc.APIURL
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("config file %s: invalid request_timeout: %w", path, err)
		}
		cfg.RequestTimeout = d
	}
	if fc.StateFile != "" {
		cfg.StateFile = fc.StateFile
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ASTROCHAT_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ASTROCHAT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("ASTROCHAT_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("ASTROCHAT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("ASTROCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
