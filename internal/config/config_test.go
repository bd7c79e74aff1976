package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plume/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "plume")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.ReadingsDir != filepath.Join(wantData, "readings") {
		t.Fatalf("unexpected readings dir: %q", cfg.Paths.ReadingsDir)
	}
	if cfg.Registry.CommitEvery != 100 {
		t.Fatalf("unexpected commit cadence: %d", cfg.Registry.CommitEvery)
	}
	if cfg.Feeds.MinBytes != 100 {
		t.Fatalf("unexpected min bytes: %d", cfg.Feeds.MinBytes)
	}
	if cfg.Download.BoxLimitDegrees != 2.0 {
		t.Fatalf("unexpected box limit: %v", cfg.Download.BoxLimitDegrees)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ReadingsDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "sensors.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.TrackerPath() != filepath.Join(wantData, "download-tracker.txt") {
		t.Fatalf("unexpected tracker path: %q", cfg.TrackerPath())
	}
}

func TestLoadReadsFileAndAppliesEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"

[registry]
throttle_ms = 0
commit_every = 10

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLUME_FEEDS_BASE_URL", "http://localhost:9090")

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Registry.CommitEvery != 10 {
		t.Fatalf("expected commit_every from file, got %d", cfg.Registry.CommitEvery)
	}
	if cfg.Registry.ThrottleMS != 0 {
		t.Fatalf("expected throttle 0, got %d", cfg.Registry.ThrottleMS)
	}
	if cfg.Feeds.BaseURL != "http://localhost:9090" {
		t.Fatalf("expected env override for feeds base url, got %q", cfg.Feeds.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty registry url", func(c *config.Config) { c.Registry.URL = "" }, "registry.url"},
		{"zero commit cadence", func(c *config.Config) { c.Registry.CommitEvery = 0 }, "registry.commit_every"},
		{"negative throttle", func(c *config.Config) { c.Registry.ThrottleMS = -1 }, "registry.throttle_ms"},
		{"zero min bytes", func(c *config.Config) { c.Feeds.MinBytes = 0 }, "feeds.min_bytes"},
		{"zero box limit", func(c *config.Config) { c.Download.BoxLimitDegrees = 0 }, "download.box_limit_degrees"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[registry]") {
		t.Fatal("sample config missing registry section")
	}
}
