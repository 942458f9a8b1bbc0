// Package store provides SQLite-backed storage for generation runs.
//
// Each run records the pool it was given, the associations it produced
// with their members, and which pool items were orphaned:
//   - runs: one row per Generate call, numbered by a logical seq
//   - pool_items: the input pool in order, with an orphan flag
//   - associations: output associations with bound constraints
//   - members: association members in join order
//
// # Ordering
//
// All ordering uses seq INTEGER, never timestamps. Every list query
// includes ORDER BY seq ASC, id ASC COLLATE BINARY so that reads are
// identical across machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Items and association payloads are stored as canonical JSON produced
// by internal/ir, so stored rows hash the same way live items do.
package store
