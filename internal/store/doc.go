// Package store records analysis runs in SQLite.
//
// Each run stores its outcome and the layout it produced (for timeouts,
// the salvaged partial layout, if any):
//   - runs: one row per analysis, identified by a UUIDv7
//   - slots: the storage fragments of a run, in layout order
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned on write, never by
// timestamps. Queries always include ORDER BY seq ASC or ORDER BY position
// ASC so results are identical across machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
