// Package dedup tracks which sessions already produced a waiting notification.
//
// A record for session S means a waiting notification for S fired less than
// TTL ago. Records live in a durable store so a restart does not re-notify.
package dedup

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/rickgao/sessionlink/internal/store"
)

// KeyPrefix namespaces dedup records in the store.
const KeyPrefix = "waiting-notified:"

// DefaultTTL bounds how long a record suppresses repeat notifications.
const DefaultTTL = 6 * time.Hour

// Record is a persisted waiting notification.
type Record struct {
	SessionID      string
	LastNotifiedAt time.Time
}

// Records reads and writes dedup records. Store failures are logged and
// treated as "no record" on read and ignored on write.
type Records struct {
	store  store.Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates a record set over s.
func New(s store.Store, ttl time.Duration, logger *slog.Logger) *Records {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Records{
		store:  s,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Key returns the store key for a session.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Get returns the live record for sessionID. Expired records are removed.
func (r *Records) Get(ctx context.Context, sessionID string) (Record, bool) {
	raw, ok, err := r.store.Get(ctx, Key(sessionID))
	if err != nil {
		r.logger.Warn("failed to read dedup record", "session", sessionID, "error", err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.logger.Warn("discarding unreadable dedup record", "session", sessionID, "value", raw)
		r.Clear(ctx, sessionID)
		return Record{}, false
	}

	rec := Record{SessionID: sessionID, LastNotifiedAt: time.UnixMilli(ms)}
	if r.now().Sub(rec.LastNotifiedAt) >= r.ttl {
		r.Clear(ctx, sessionID)
		return Record{}, false
	}
	return rec, true
}

// Active reports whether a live record exists for sessionID.
func (r *Records) Active(ctx context.Context, sessionID string) bool {
	_, ok := r.Get(ctx, sessionID)
	return ok
}

// Mark writes or refreshes the record for sessionID with the current time.
func (r *Records) Mark(ctx context.Context, sessionID string) {
	value := strconv.FormatInt(r.now().UnixMilli(), 10)
	if err := r.store.Set(ctx, Key(sessionID), value); err != nil {
		r.logger.Warn("failed to write dedup record", "session", sessionID, "error", err)
	}
}

// Clear deletes the record for sessionID.
func (r *Records) Clear(ctx context.Context, sessionID string) {
	if err := r.store.Remove(ctx, Key(sessionID)); err != nil {
		r.logger.Warn("failed to remove dedup record", "session", sessionID, "error", err)
	}
}
