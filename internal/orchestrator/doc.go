// Package orchestrator drives a download run end to end.
//
// It wires the sensor store, the download tracker, and the feed fetcher
// into a single restartable pass: guard the bounding box, take the run
// lock, then walk every settled sensor in the box, fetching one CSV per
// feed per day and recording completion in the tracker. Keep run
// sequencing here; per-day fetch mechanics live in timeseries.
package orchestrator
