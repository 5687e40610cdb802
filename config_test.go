package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL == "" {
		t.Error("default base URL is empty")
	}
	if cfg.Card.Number != "4242424242424242" {
		t.Errorf("default card number = %q, want the test card", cfg.Card.Number)
	}
	if cfg.findTimeout() != 10*time.Second {
		t.Errorf("findTimeout = %s, want 10s", cfg.findTimeout())
	}
	if cfg.typePace() != 200*time.Millisecond {
		t.Errorf("typePace = %s, want 200ms", cfg.typePace())
	}
	if cfg.CartMaxAttempts < 1 {
		t.Errorf("CartMaxAttempts = %d, want at least one attempt", cfg.CartMaxAttempts)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("writes defaults when missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaseURL != DefaultConfig().BaseURL {
			t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("default config not written: %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		cfg := DefaultConfig()
		cfg.BaseURL = "http://localhost:8080"
		cfg.Headless = false
		cfg.Selectors.Temperature = "#temp-alt"
		cfg.Logging.Level = "debug"
		if err := cfg.Save(path); err != nil {
			t.Fatalf("save: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.BaseURL != "http://localhost:8080" {
			t.Errorf("BaseURL = %q", loaded.BaseURL)
		}
		if loaded.Headless {
			t.Error("Headless not preserved")
		}
		if loaded.Selectors.Temperature != "#temp-alt" {
			t.Errorf("Selectors.Temperature = %q", loaded.Selectors.Temperature)
		}
		if loaded.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %q", loaded.Logging.Level)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("base_url: http://example.test\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaseURL != "http://example.test" {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
		if cfg.Selectors.Temperature != "#temperature" {
			t.Errorf("Selectors.Temperature = %q, want default kept", cfg.Selectors.Temperature)
		}
	})
}

func TestLoggerConfig(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		log, err := newLogger(LogConfig{Level: "info", Format: "console"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		log.Info("logger smoke test")
	})

	t.Run("json with file core", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "run.log")
		log, err := newLogger(LogConfig{Level: "debug", Format: "json", File: file, MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		log.Info("logger smoke test")
		log.Sync()
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("log file not written: %v", err)
		}
		if len(data) == 0 {
			t.Error("log file is empty")
		}
	})

	t.Run("bad level falls back to info", func(t *testing.T) {
		log, err := newLogger(LogConfig{Level: "shouty"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if log.Core().Enabled(zap.DebugLevel) {
			t.Error("debug enabled after fallback to info")
		}
	})
}
