// Package store provides durable storage for named records.
//
// A record is an opaque value addressed by (kind, owner, name): the kind
// separates record families (shops, vaults, signs, players, inventories), the
// owner scopes records to one player and the name identifies the record within
// that scope. Values are stored as JSON produced by Records[T].
//
// Two backends implement Backend:
//   - SQLite (Open): the default, a single records table
//   - bbolt (OpenBolt): one bucket per kind with a nested bucket per owner
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second wait on lock contention
//   - Single connection: one writer at a time
//
// All writes are synchronous. A successful Put is durable when it returns.
//
// # Deterministic Listing
//
// List returns names in ascending byte order (COLLATE BINARY for SQLite,
// key order for bbolt) so both backends produce identical results.
package store
