// Package repositories implements SQLite persistence for the match audit log.
//
// Key Implementations:
//   - [SyncRunRepository] : one row per sync invocation with its final totals
//   - [MatchRepository] : every search-based match decision with its score breakdown
//
// Sequence numbers give runs a stable, human-readable ordering (run #12) independent of UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
