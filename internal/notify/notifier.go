package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/sessionlink/internal/alert"
	"github.com/rickgao/sessionlink/internal/connection"
	"github.com/rickgao/sessionlink/internal/dedup"
	"github.com/rickgao/sessionlink/internal/metrics"
	"github.com/rickgao/sessionlink/internal/model"
	"github.com/rickgao/sessionlink/internal/protocol"
)

// Notification sources.
const (
	SourceRealtime = "realtime"
	SourceSnapshot = "snapshot"
)

const (
	frameBufferSize = 256
	storeTimeout    = 2 * time.Second
	alertTimeout    = 5 * time.Second
)

// TitleIndicator displays the number of waiting sessions.
type TitleIndicator interface {
	SetWaiting(n int) error
}

// Subscriptions is the part of connection.Manager the notifier uses.
type Subscriptions interface {
	Subscribe(sub connection.Subscriber) connection.SubscriberID
	Unsubscribe(id connection.SubscriberID)
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithAlerters sets the per-notification side effects.
func WithAlerters(a ...alert.Alerter) Option {
	return func(n *Notifier) { n.alerters = a }
}

// WithTitle sets the waiting-count indicator.
func WithTitle(t TitleIndicator) Option {
	return func(n *Notifier) { n.title = t }
}

// WithMetrics records notification metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

// Notifier deduplicates waiting-session alerts.
type Notifier struct {
	records  *dedup.Records
	alerters []alert.Alerter
	title    TitleIndicator
	logger   *slog.Logger
	metrics  *metrics.Metrics

	frames chan protocol.Message

	// Serializes the record check and write across the realtime and snapshot paths.
	notifyMu sync.Mutex

	mu        sync.Mutex
	statuses  map[string]string   // Last known status per session
	waiting   map[string]struct{} // Sessions currently waiting
	snapshot  map[string]struct{} // Previous snapshot
	connected bool
}

// New creates a Notifier over records.
func New(records *dedup.Records, logger *slog.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		records:  records,
		logger:   logger,
		frames:   make(chan protocol.Message, frameBufferSize),
		statuses: make(map[string]string),
		waiting:  make(map[string]struct{}),
		snapshot: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Attach subscribes to the realtime connection. Frames are queued for Run so
// store and alert I/O never blocks the connection's event loop.
func (n *Notifier) Attach(subs Subscriptions) (detach func()) {
	id := subs.Subscribe(connection.Subscriber{
		OnMessage: func(msg protocol.Message) {
			if _, _, ok := msg.SessionStatus(); !ok {
				return
			}
			select {
			case n.frames <- msg:
			default:
				n.logger.Warn("notifier buffer full, dropping frame", "type", msg.Type)
				n.metrics.IncFrameDropped("notifier_full")
			}
		},
		OnStateChange: func(st connection.State) {
			n.SetConnected(st.Connected)
		},
		AutoReconnect: true,
	})
	return func() { subs.Unsubscribe(id) }
}

// Run processes queued realtime frames until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info("notifier started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("notifier stopped")
			return nil
		case msg := <-n.frames:
			n.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage applies a status-bearing frame. Other frames are ignored.
func (n *Notifier) HandleMessage(ctx context.Context, msg protocol.Message) {
	if id, status, ok := msg.SessionStatus(); ok {
		n.HandleStatus(ctx, id, status)
	}
}

// SetConnected records whether the realtime channel is up.
func (n *Notifier) SetConnected(connected bool) {
	n.mu.Lock()
	changed := n.connected != connected
	n.connected = connected
	n.mu.Unlock()

	if changed {
		n.logger.Debug("realtime availability changed", "connected", connected)
	}
}

// Connected reports whether the realtime channel is up.
func (n *Notifier) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}

// HandleStatus applies a status update for one session and reports whether
// a notification fired. Entering waiting notifies unless a live record
// exists; any other status clears the record.
func (n *Notifier) HandleStatus(ctx context.Context, sessionID, status string) bool {
	if sessionID == "" {
		return false
	}

	n.mu.Lock()
	prev, known := n.statuses[sessionID]
	n.statuses[sessionID] = status
	if model.IsWaiting(status) {
		n.waiting[sessionID] = struct{}{}
	} else {
		delete(n.waiting, sessionID)
	}
	if status == model.StatusEnded {
		delete(n.statuses, sessionID)
	}
	count := len(n.waiting)
	n.mu.Unlock()

	n.updateTitle(count)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if !model.IsWaiting(status) {
		n.records.Clear(sctx, sessionID)
		return false
	}
	if known && model.IsWaiting(prev) {
		return false
	}

	return n.maybeNotify(sctx, sessionID, SourceRealtime)
}

// HandleSnapshot applies the ids currently waiting according to a polled
// snapshot and returns the ids notified. Ids new since the previous snapshot
// are candidates, but only fire while the realtime channel is down. While it
// is down, ids missing since the previous snapshot lose their record, as a
// non-waiting status would over realtime. The previous snapshot is always
// replaced.
func (n *Notifier) HandleSnapshot(ctx context.Context, waitingIDs []string) []string {
	current := make(map[string]struct{}, len(waitingIDs))
	for _, id := range waitingIDs {
		if id != "" {
			current[id] = struct{}{}
		}
	}

	n.mu.Lock()
	var candidates, left []string
	for id := range current {
		if _, seen := n.snapshot[id]; !seen {
			candidates = append(candidates, id)
		}
	}
	for id := range n.snapshot {
		if _, still := current[id]; !still {
			left = append(left, id)
		}
	}
	n.snapshot = current
	connected := n.connected

	if !connected {
		for _, id := range left {
			delete(n.statuses, id)
		}
		for id := range current {
			n.statuses[id] = model.StatusWaiting
		}
		n.waiting = make(map[string]struct{}, len(current))
		for id := range current {
			n.waiting[id] = struct{}{}
		}
	}
	count := len(n.waiting)
	n.mu.Unlock()

	if connected {
		return nil
	}
	n.updateTitle(count)

	sort.Strings(candidates)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	// A session that dropped out of the snapshot has left waiting.
	for _, id := range left {
		n.records.Clear(sctx, id)
	}

	var fired []string
	for _, id := range candidates {
		if n.maybeNotify(sctx, id, SourceSnapshot) {
			fired = append(fired, id)
		}
	}
	return fired
}

// Waiting returns the number of sessions currently known to be waiting.
func (n *Notifier) Waiting() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.waiting)
}

// maybeNotify fires unless a live record exists, then writes the record.
func (n *Notifier) maybeNotify(ctx context.Context, sessionID, source string) bool {
	n.notifyMu.Lock()
	defer n.notifyMu.Unlock()

	if n.records.Active(ctx, sessionID) {
		n.logger.Debug("waiting notification suppressed", "session", sessionID, "source", source)
		return false
	}

	n.logger.Info("session waiting for input", "session", sessionID, "source", source)
	n.metrics.IncNotification(source)
	n.fire(ctx, alert.Event{SessionID: sessionID})
	n.records.Mark(ctx, sessionID)
	return true
}

// fire runs every alerter. Failures are logged and do not stop the others.
func (n *Notifier) fire(ctx context.Context, ev alert.Event) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	for _, a := range n.alerters {
		if err := a.Alert(actx, ev); err != nil {
			n.logger.Debug("alert failed", "alert", a.Name(), "session", ev.SessionID, "error", err)
			n.metrics.IncAlertError(a.Name())
		}
	}
}

func (n *Notifier) updateTitle(count int) {
	if n.title == nil {
		return
	}
	if err := n.title.SetWaiting(count); err != nil {
		n.logger.Debug("title update failed", "error", err)
		n.metrics.IncAlertError("title")
	}
}
