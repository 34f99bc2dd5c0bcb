// Package store persists call reports in SQLite.
//
// A report row is written exactly once, at the end of a successful call
// lifecycle, and is only removed by an explicit Delete. The Store wraps a
// modernc.org/sqlite connection in WAL mode with a busy timeout and retries
// writes that hit SQLITE_BUSY, so the CLI and daemon can share one database.
//
// Schema changes bump schemaVersion in schema.go; older databases are
// rejected with ErrSchemaMismatch rather than migrated.
package store
