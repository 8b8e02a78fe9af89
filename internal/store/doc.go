// Package store provides SQLite-backed durable storage for the publication
// ledger.
//
// The store is append-only: each successful publish inserts one row keyed by
// the content fingerprint. Inserting an existing fingerprint is a no-op, so a
// retried commit never fails on a duplicate.
//
// # Database Configuration
//
//   - WAL mode: status and history reads never block a commit
//   - synchronous=FULL: a committed row survives power loss
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// The store assumes a single writer. postbot guarantees that with its lock
// marker; the store itself does not coordinate writers.
package store
