// Package registry synchronizes the remote sensor directory into the
// local store.
//
// The Client fetches the full registry snapshot and per-sensor detail
// records with explicit timeouts and bounded retries. The Syncer
// reconciles each raw record against the store: insert when unknown,
// refresh while unsettled, skip forever once settled. Progress is
// committed in bounded batches so a crash mid-sync loses at most one
// batch of records.
//
// Failure to fetch the registry itself is fatal; a single sensor's
// detail lookup failing degrades to unknown fields and the sync
// continues.
package registry
