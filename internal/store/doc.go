// Package store provides SQLite-backed storage for analysis passes.
//
// The store keeps:
//   - Passes: one row per analysis, stamped with a UUIDv7 id and a seq
//   - Properties: the resolved element of every component of a pass
//   - Stats: the named counters of a pass
//   - Golden: trained properties keyed by model hash and solver
//
// # Conventions
//
// Ordering uses seq INTEGER (logical clock), never timestamps. Every query
// that returns several rows orders by seq and breaks ties with
// id COLLATE BINARY, so reads are deterministic.
//
// Pass writes are idempotent: writing a pass id twice keeps the first row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
