package config

const (
	defaultDataDir            = "~/.local/share/plume"
	defaultRegistryURL        = "https://www.purpleair.com/json"
	defaultDetailURL          = "https://www.purpleair.com/json"
	defaultFeedsBaseURL       = "https://thingspeak.com"
	defaultThrottleMS         = 1000
	defaultCommitEvery        = 100
	defaultRequestTimeout     = 30
	defaultRetryAttempts      = 3
	defaultRetryBackoffMS     = 500
	defaultFeedMinBytes       = 100
	defaultBoxLimitDegrees    = 2.0
	defaultDownloadMinFreeMiB = 512
	defaultMergeOutputFile    = "combined-data.csv"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Registry: Registry{
			URL:            defaultRegistryURL,
			DetailURL:      defaultDetailURL,
			ThrottleMS:     defaultThrottleMS,
			CommitEvery:    defaultCommitEvery,
			RequestTimeout: defaultRequestTimeout,
			RetryAttempts:  defaultRetryAttempts,
			RetryBackoffMS: defaultRetryBackoffMS,
		},
		Feeds: Feeds{
			BaseURL:        defaultFeedsBaseURL,
			MinBytes:       defaultFeedMinBytes,
			RequestTimeout: defaultRequestTimeout,
			RetryAttempts:  defaultRetryAttempts,
			RetryBackoffMS: defaultRetryBackoffMS,
		},
		Download: Download{
			BoxLimitDegrees: defaultBoxLimitDegrees,
			MinFreeMiB:      defaultDownloadMinFreeMiB,
		},
		Merge: Merge{
			OutputFile: defaultMergeOutputFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
