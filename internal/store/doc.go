// Package store persists sensor metadata in SQLite and is the single
// source of truth for what is known about each physical sensor.
//
// The Store manages the database connection, schema initialization, and
// the sensor_info queries the registry sync and the download orchestrator
// need. Writes from the registry sync go through a Batch so progress can
// be committed in bounded chunks; a crash loses at most one uncommitted
// batch. All SQL is parameterized.
//
// A sensor whose processed flag is set is settled: upserts never touch
// the flag, and callers flip it only through MarkProcessed. Schema changes
// bump the version in schema.go.
package store
