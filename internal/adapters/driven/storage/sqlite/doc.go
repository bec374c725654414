// Package sqlite provides a SQLite-backed SnapshotStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file holds:
//
//   - documents: one row per ingested document, keyed by name
//   - chunks: the ordered chunks of each document with their embeddings
//   - table_rows: the pooled, append-only flattened table rows
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.troubleshoot/data/snapshot.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
