package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASTROCHAT_CONFIG_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("RequestTimeout = %v, want 2m", cfg.RequestTimeout)
	}
	if cfg.StateFile != filepath.Join(dir, "session.json") {
		t.Errorf("StateFile = %q, want under config dir", cfg.StateFile)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASTROCHAT_CONFIG_DIR", dir)

	yaml := `api_url: https://api.findastro.example
request_timeout: 90s
log_level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "https://api.findastro.example" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want 90s", cfg.RequestTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASTROCHAT_CONFIG_DIR", dir)

	yaml := "api_url: https://file.example\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASTROCHAT_API_URL", "https://env.example")
	t.Setenv("ASTROCHAT_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "https://env.example" {
		t.Errorf("BaseURL = %q, env should win over file", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestLoadBadTimeoutInFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASTROCHAT_CONFIG_DIR", dir)

	yaml := "request_timeout: not-a-duration\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should reject an unparseable request_timeout")
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	cfg := Config{
		LogFile:  filepath.Join(t.TempDir(), "logs", "astrochat.log"),
		LogLevel: slog.LevelInfo,
	}

	logger, closer := cfg.NewLogger()
	logger.Info("chart ready", "mobile", "9876543210")
	if err := closer(); err != nil {
		t.Fatalf("closer error: %v", err)
	}

	raw, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"chart ready"`) {
		t.Errorf("log file missing JSON record, got %q", raw)
	}
}

func TestNewLoggerWithoutFileStillWorks(t *testing.T) {
	cfg := Config{LogLevel: slog.LevelInfo}

	logger, closer := cfg.NewLogger()
	logger.Info("stderr only")
	if err := closer(); err != nil {
		t.Errorf("closer error: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
