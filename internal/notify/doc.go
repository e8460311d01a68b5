// Package notify alerts the user when a session starts waiting for input.
//
// The Notifier subscribes to the realtime connection like any other consumer.
// Status-bearing frames drive the connected path; snapshots from the poller
// are the fallback while the realtime channel is down. Both paths share the
// same TTL dedup records, so each waiting entry alerts at most once per TTL.
package notify
