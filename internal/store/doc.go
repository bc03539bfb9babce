// Package store provides SQLite-backed storage for SPORK machine state.
//
// A SPORK database holds five kinds of rows:
//   - Programs: named SQL statements, read-only to the executor
//   - Processes: one row per run, running → completed
//   - Files: a flat tree rooted at row 1 ("/")
//   - Variables: per-user name/value pairs
//   - Screen: append-only output log, ordered by id
//
// # Initialization
//
// Open seeds a new database from a schema Source exactly once. The schema is
// read before the database file is created and applied in one transaction,
// so a failed seed leaves nothing behind. Existing databases are opened
// without modification.
//
// # Transactions
//
// All mutations go through WithTx. The callback's Tx commits when the
// callback returns nil and rolls back on error or panic.
//
// # Database Configuration
//
//   - foreign_keys=ON on every connection
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - a single open connection (SQLite has one writer)
package store
