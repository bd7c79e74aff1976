// Package config loads, normalizes, and validates plume configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks loaded
// from an optional .env file. The Config type centralizes every knob the
// CLI needs, so data directories, remote endpoints, and pacing limits are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
