// Package engine executes query IR against in-memory table snapshots and
// runs the end-to-end query pipeline: match an intent rule, bind the
// parameters extracted from the user's text, execute, and report an Outcome.
//
// ARCHITECTURE:
//
// Execution is a fixed pipeline over one table:
//
//  1. filter     WHERE is evaluated per record (nil WHERE keeps all)
//  2. sort       ORDER BY keys, stable, nulls last
//  3. paginate   LIMIT offset, count
//  4. project    SELECT list, or * passes records through
//
// Aggregates in the SELECT list range over the filtered rows before
// pagination. When every projection is an aggregate (or otherwise reads no
// row field) the result collapses to a single row.
//
// UNION ALL branches execute independently and are concatenated in order.
//
// DETERMINISM:
//
// Execute is a pure function of (statement, tables). Sorting is stable and
// ties keep snapshot order, so the same inputs always give the same rows in
// the same order. No wall clock, no randomness, no map iteration order
// reaches the output.
//
// CONCURRENCY:
//
// Tables and compiled statements are immutable, so any number of goroutines
// may call Execute and Engine.Query concurrently.
package engine
