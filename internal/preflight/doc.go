// Package preflight provides readiness checks for the filesystem paths
// and remote endpoints a download run depends on.
//
// The orchestrator runs RunAll before touching the tracker or the lock;
// a failed check halts the run before any remote request is made. The
// CLI "plume db" and "plume download" commands surface the same results
// for operators.
package preflight
