// Package queue persists work items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the status transitions the batch scheduler relies on. Every
// successful mutation raises a coalesced change signal so the scheduler can
// react to new work without polling aggressively.
//
// The database is treated as transient storage for the current run rather
// than a long-term archive: loading a new input pair replaces the previous
// item set wholesale. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
