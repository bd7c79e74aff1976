package preflight

import (
	"context"

	"plume/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks a download run needs. Remote
// endpoint probes are separate because sync and download touch
// different services.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Readings directory", cfg.Paths.ReadingsDir),
		CheckDiskSpace("Disk space", cfg.Paths.ReadingsDir, cfg.Download.MinFreeMiB),
	}
	return results
}

// RunRemote probes the configured remote endpoints.
func RunRemote(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckEndpoint(ctx, "Registry", cfg.Registry.URL),
		CheckEndpoint(ctx, "Feed host", cfg.Feeds.BaseURL),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
