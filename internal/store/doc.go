// Package store provides SQLite-backed persistence for intent rules, table
// snapshots and the query log.
//
// The query core never touches the store. Callers load rules and tables
// from it once, build an immutable catalog and TableStore, and append one
// log entry per answered query.
//
// # Tables
//
//   - intent_rules: one row per rule, trigger_words as a JSON array
//   - table_rows: one row per record, record as ordered JSON
//   - query_log: append-only, one row per query
//
// # Deterministic Reads
//
// Every read orders by an explicit key (seq, then id or table name with
// COLLATE BINARY), never by rowid or insertion timing, so loading the same
// database twice yields identical catalogs and snapshots.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
