// Package store provides the durable key-value store used for notification
// dedup records.
//
// Backends:
//   - Memory: process-local map, for tests and ephemeral runs
//   - SQLite: single-machine file (default)
//   - Postgres: shared table for watchers on several machines
//   - Redis: shared keyspace
//
// Values are opaque strings. Callers decide how to interpret a failure; the
// notifier treats read errors as "absent" and ignores write errors.
package store
