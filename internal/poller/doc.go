// Package poller implements the waiting-session snapshot poller.
//
// The poller:
//   - Fetches the ids of waiting sessions from the REST API on a fixed interval
//   - Hands every snapshot to a SnapshotHandler (the notifier), which only
//     alerts from it while the realtime connection is down
//   - Polls once immediately on start
package poller
