// Package model defines shared session types used across sessionlink.
//
// Conventions:
//   - Session IDs: opaque strings assigned by the backend
//   - Statuses: lower-case strings; only StatusWaiting carries meaning for alerts
//   - Timestamps: time.Time in memory, epoch milliseconds on disk
package model
