package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateRegistry() error {
	if c.Registry.URL == "" {
		return errors.New("registry.url must be set")
	}
	if c.Registry.DetailURL == "" {
		return errors.New("registry.detail_url must be set")
	}
	if c.Registry.ThrottleMS < 0 {
		return errors.New("registry.throttle_ms must not be negative")
	}
	if c.Registry.CommitEvery <= 0 {
		return errors.New("registry.commit_every must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"registry.request_timeout":  c.Registry.RequestTimeout,
		"registry.retry_attempts":   c.Registry.RetryAttempts,
		"registry.retry_backoff_ms": c.Registry.RetryBackoffMS,
	})
}

func (c *Config) validateFeeds() error {
	if c.Feeds.BaseURL == "" {
		return errors.New("feeds.base_url must be set")
	}
	if c.Feeds.MinBytes <= 0 {
		return errors.New("feeds.min_bytes must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"feeds.request_timeout":  c.Feeds.RequestTimeout,
		"feeds.retry_attempts":   c.Feeds.RetryAttempts,
		"feeds.retry_backoff_ms": c.Feeds.RetryBackoffMS,
	})
}

func (c *Config) validateDownload() error {
	if c.Download.BoxLimitDegrees <= 0 {
		return errors.New("download.box_limit_degrees must be positive")
	}
	if c.Download.MinFreeMiB < 0 {
		return errors.New("download.min_free_mib must not be negative")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if strings.TrimSpace(c.Merge.OutputFile) == "" {
		return errors.New("merge.output_file must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
