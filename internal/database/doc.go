// Package database provides PostgreSQL connection pool management.
//
// The postgres store driver keeps notification dedup records in a shared
// database so several watchers on different machines agree on what was sent.
package database
