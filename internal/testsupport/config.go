// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"plume/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ReadingsDir = filepath.Join(base, "readings")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Registry.ThrottleMS = 0
	cfg.Registry.RetryBackoffMS = 1
	cfg.Feeds.RetryBackoffMS = 1
	cfg.Download.MinFreeMiB = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithCommitEvery overrides the registry checkpoint cadence.
func WithCommitEvery(n int) ConfigOption {
	return func(c *config.Config) {
		c.Registry.CommitEvery = n
	}
}

// WithMinBytes overrides the minimum feed response size.
func WithMinBytes(n int64) ConfigOption {
	return func(c *config.Config) {
		c.Feeds.MinBytes = n
	}
}
