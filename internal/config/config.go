package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir holds the sensor database, the download tracker, and the
	// run lock file.
	DataDir string `toml:"data_dir"`
	// ReadingsDir holds per-day CSV fragments and the combined dataset.
	// Defaults to <data_dir>/readings.
	ReadingsDir string `toml:"readings_dir"`
	LogDir      string `toml:"log_dir"`
}

// Registry contains configuration for the remote sensor registry.
type Registry struct {
	URL       string `toml:"url"`
	DetailURL string `toml:"detail_url"`
	// ThrottleMS is the fixed delay applied before each registry record,
	// whether or not a detail fetch is needed.
	ThrottleMS int `toml:"throttle_ms"`
	// CommitEvery bounds the records lost to a crash mid-sync.
	CommitEvery    int `toml:"commit_every"`
	RequestTimeout int `toml:"request_timeout"`
	RetryAttempts  int `toml:"retry_attempts"`
	RetryBackoffMS int `toml:"retry_backoff_ms"`
}

// Feeds contains configuration for the per-channel time-series API.
type Feeds struct {
	BaseURL string `toml:"base_url"`
	// MinBytes is the smallest response considered real data; smaller
	// files are deleted so the day is retried on the next run.
	MinBytes       int64 `toml:"min_bytes"`
	RequestTimeout int   `toml:"request_timeout"`
	RetryAttempts  int   `toml:"retry_attempts"`
	RetryBackoffMS int   `toml:"retry_backoff_ms"`
}

// Download contains guards applied to batch download runs.
type Download struct {
	// BoxLimitDegrees caps the bounding-box span unless overridden.
	BoxLimitDegrees float64 `toml:"box_limit_degrees"`
	MinFreeMiB      int64   `toml:"min_free_mib"`
}

// Merge contains configuration for fragment merging.
type Merge struct {
	OutputFile string `toml:"output_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for plume.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Registry Registry `toml:"registry"`
	Feeds    Feeds    `toml:"feeds"`
	Download Download `toml:"download"`
	Merge    Merge    `toml:"merge"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/plume/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. Environment overrides
// (optionally via a .env file in the working directory) are applied after
// the file is read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// applyEnvOverrides honours a small set of environment fallbacks so
// deployments can point at alternate endpoints without editing the file.
func (c *Config) applyEnvOverrides() {
	_ = godotenv.Load(".env")

	if v := strings.TrimSpace(os.Getenv("PLUME_REGISTRY_URL")); v != "" {
		c.Registry.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("PLUME_REGISTRY_DETAIL_URL")); v != "" {
		c.Registry.DetailURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PLUME_FEEDS_BASE_URL")); v != "" {
		c.Feeds.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PLUME_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("plume.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReadingsDir) == "" {
		c.Paths.ReadingsDir = filepath.Join(c.Paths.DataDir, "readings")
	}
	if c.Paths.ReadingsDir, err = expandPath(c.Paths.ReadingsDir); err != nil {
		return fmt.Errorf("paths.readings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Registry.URL = strings.TrimRight(strings.TrimSpace(c.Registry.URL), "/")
	c.Registry.DetailURL = strings.TrimRight(strings.TrimSpace(c.Registry.DetailURL), "/")
	c.Feeds.BaseURL = strings.TrimRight(strings.TrimSpace(c.Feeds.BaseURL), "/")

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReadingsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the sensor database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "sensors.db")
}

// TrackerPath returns the location of the download tracker log.
func (c *Config) TrackerPath() string {
	return filepath.Join(c.Paths.DataDir, "download-tracker.txt")
}

// LockPath returns the location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "plume.lock")
}

// MergedPath returns the location of the combined dataset file.
func (c *Config) MergedPath() string {
	return filepath.Join(c.Paths.ReadingsDir, c.Merge.OutputFile)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to the given path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
