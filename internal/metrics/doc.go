// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Realtime socket state, connect attempts and reconnect scheduling
//   - Inbound frame rates and dropped (malformed) frames
//   - Outbound sends and silently dropped sends
//   - Waiting-session notifications by source and alert failures
//   - Snapshot poll outcomes
//
// All helper methods are safe to call on a nil *Metrics.
package metrics
