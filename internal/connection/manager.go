package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/sessionlink/internal/metrics"
	"github.com/rickgao/sessionlink/internal/protocol"
)

// Manager shares one realtime socket between many subscribers.
type Manager interface {
	// Start runs the event loop until Stop. Cancelling ctx closes the socket
	// and blocks new connections; Stop must still be called.
	Start(ctx context.Context) error

	// Stop tears the socket down and stops the event loop.
	Stop(ctx context.Context) error

	// Subscribe registers a subscriber and connects if needed.
	Subscribe(sub Subscriber) SubscriberID

	// Unsubscribe removes a subscriber. The socket closes when none remain.
	Unsubscribe(id SubscriberID)

	// SetToken rebinds the auth token, reconnecting when it changes.
	SetToken(token string)

	// Connect starts a connection attempt if subscribers exist and none is in progress.
	Connect()

	// Disconnect closes the socket and cancels any pending reconnect.
	Disconnect()

	// Send writes v as a JSON frame if the socket is open. Frames are dropped
	// silently otherwise. Only encoding failures are returned.
	Send(v any) error

	// SubscribeChannel asks the server for events on a channel resource.
	SubscribeChannel(channel, id string) error

	// UnsubscribeChannel stops server events on a channel resource.
	UnsubscribeChannel(channel, id string) error

	// SendChatMessage sends a chat message into a session.
	SendChatMessage(sessionID, content string) error

	// State returns the last broadcast connection state.
	State() State

	// Stats returns current connection statistics.
	Stats() ManagerStats
}

// ManagerOption customizes a Manager.
type ManagerOption func(*manager)

// WithDialer replaces the gorilla dialer.
func WithDialer(d Dialer) ManagerOption {
	return func(m *manager) { m.dialer = d }
}

// WithMetrics records connection metrics.
func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *manager) { m.metrics = mt }
}

// WithToken sets the initial auth token without triggering a reconnect.
func WithToken(token string) ManagerOption {
	return func(m *manager) { m.token = token }
}

// withAfterFunc swaps the reconnect timer source.
func withAfterFunc(f func(time.Duration, func()) func() bool) ManagerOption {
	return func(m *manager) { m.afterFunc = f }
}

// socket is one physical connection attempt. Events are tagged with the
// socket that produced them so the loop can ignore superseded sockets.
type socket struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.Mutex
	conn   Conn
	closed bool

	open bool // Loop-owned
}

// attach binds the dialed conn. A socket closed while dialing closes the
// conn immediately and returns false.
func (s *socket) attach(c Conn) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.Close()
		return false
	}
	s.conn = c
	s.mu.Unlock()
	return true
}

func (s *socket) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	c := s.conn
	s.mu.Unlock()

	s.cancel()
	if c != nil {
		c.Close()
	}
}

func (s *socket) write(data []byte) error {
	s.mu.Lock()
	c, closed := s.conn, s.closed
	s.mu.Unlock()

	if c == nil || closed {
		return ErrNotConnected
	}
	return c.WriteMessage(data)
}

// reconnectTimer is compared by identity so a fire that raced with
// cancellation is ignored.
type reconnectTimer struct {
	stop func() bool
}

type subscriberEntry struct {
	id  SubscriberID
	sub Subscriber
}

// manager implements the Manager interface.
type manager struct {
	cfg       ManagerConfig
	dialer    Dialer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	afterFunc func(time.Duration, func()) func() bool

	queue *taskQueue

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool

	state atomic.Pointer[State]
	stats atomic.Pointer[ManagerStats]

	// Owned by the event loop
	subs     []subscriberEntry
	token    string
	current  *socket
	attempts int
	timer    *reconnectTimer
	stopping bool // Start context ended; no new connections
	st       State
}

// NewManager creates a new Connection Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger, opts ...ManagerOption) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}

	m := &manager{
		cfg:    cfg,
		logger: logger,
		queue:  newTaskQueue(),
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dialer == nil {
		m.dialer = NewDialer(cfg.Client, logger)
	}

	m.state.Store(&State{})
	m.stats.Store(&ManagerStats{})
	return m
}

// Start begins the event loop.
func (m *manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("connection manager already started")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("connection manager started", "url", redactURL(m.cfg.URL))
	return nil
}

// Stop gracefully shuts down.
func (m *manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")

	if !m.started.Load() {
		m.queue.close()
		return nil
	}

	done := make(chan struct{})
	if m.queue.push(func() {
		m.teardown()
		close(done)
	}) {
		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn("shutdown timeout, forcing close")
		}
	}

	m.queue.close()
	m.cancel()

	// Wait for goroutines with timeout
	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, goroutines still running")
	}

	m.logger.Info("connection manager stopped")
	return nil
}

// run executes loop tasks in order until Stop closes the queue. If the Start
// context ends first, the socket is torn down right away and the loop keeps
// serving tasks, without connecting again, until Stop.
func (m *manager) run() {
	defer m.wg.Done()

	ctx := m.ctx
	for {
		task, ok := m.queue.pop(ctx)
		if !ok {
			if m.queue.isClosed() {
				return
			}
			m.logger.Debug("connection manager context done, closing socket")
			m.stopping = true
			m.teardown()
			m.publishStats()
			ctx = context.Background()
			continue
		}
		task()
		m.publishStats()
	}
}

// post enqueues a loop task. Tasks posted after Stop are dropped.
func (m *manager) post(task func()) {
	m.queue.push(task)
}

// Subscribe registers a subscriber.
func (m *manager) Subscribe(sub Subscriber) SubscriberID {
	id := SubscriberID(uuid.New())
	if sub.ReconnectInterval <= 0 {
		sub.ReconnectInterval = m.cfg.ReconnectInterval
	}
	if sub.MaxReconnectAttempts <= 0 {
		sub.MaxReconnectAttempts = m.cfg.MaxReconnectAttempts
	}

	m.post(func() {
		m.subs = append(m.subs, subscriberEntry{id: id, sub: sub})
		m.metrics.SetSubscribers(len(m.subs))
		m.logger.Debug("subscriber added", "subscriber", id, "subscribers", len(m.subs))

		if sub.OnStateChange != nil {
			st := m.st
			m.invoke(id, "state", func() { sub.OnStateChange(st) })
		}
		m.connect(true)
	})
	return id
}

// Unsubscribe removes a subscriber.
func (m *manager) Unsubscribe(id SubscriberID) {
	m.post(func() {
		idx := -1
		for i, e := range m.subs {
			if e.id == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		m.subs = append(m.subs[:idx], m.subs[idx+1:]...)
		m.metrics.SetSubscribers(len(m.subs))
		m.logger.Debug("subscriber removed", "subscriber", id, "subscribers", len(m.subs))

		if len(m.subs) == 0 {
			m.teardown()
		}
	})
}

// SetToken rebinds the auth token.
func (m *manager) SetToken(token string) {
	m.post(func() {
		if token == m.token {
			return
		}
		m.token = token

		if len(m.subs) == 0 {
			return
		}

		m.logger.Info("auth token changed, reconnecting")
		m.teardown()
		m.connect(true)
	})
}

// Connect requests a connection attempt.
func (m *manager) Connect() {
	m.post(func() { m.connect(true) })
}

// Disconnect closes the socket.
func (m *manager) Disconnect() {
	m.post(m.teardown)
}

// Send writes a JSON frame if the socket is open.
func (m *manager) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	m.post(func() {
		s := m.current
		if s == nil || !s.open {
			m.logger.Debug("socket not open, dropping frame")
			m.metrics.IncSendDropped()
			return
		}
		if err := s.write(data); err != nil {
			s.logger.Warn("failed to send frame", "error", err)
			m.metrics.IncSendDropped()
			return
		}
		m.metrics.IncFrameSent()
	})
	return nil
}

// SubscribeChannel asks the server for events on a channel.
func (m *manager) SubscribeChannel(channel, id string) error {
	return m.Send(protocol.Subscribe(channel, id))
}

// UnsubscribeChannel stops server events on a channel.
func (m *manager) UnsubscribeChannel(channel, id string) error {
	return m.Send(protocol.Unsubscribe(channel, id))
}

// SendChatMessage sends a chat message into a session.
func (m *manager) SendChatMessage(sessionID, content string) error {
	return m.Send(protocol.Chat(sessionID, content))
}

// State returns the last broadcast state.
func (m *manager) State() State {
	return *m.state.Load()
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	return *m.stats.Load()
}

func (m *manager) publishStats() {
	m.stats.Store(&ManagerStats{
		Subscribers:       len(m.subs),
		Connected:         m.st.Connected,
		Connecting:        m.st.Connecting,
		ReconnectAttempts: m.attempts,
		ReconnectPending:  m.timer != nil,
	})
}

// connect opens a new socket unless there is nothing to serve or one is
// already connecting or open. External triggers reset the attempt counter.
func (m *manager) connect(external bool) {
	if m.stopping || len(m.subs) == 0 || m.st.Connecting || (m.current != nil && m.current.open) {
		return
	}
	if external {
		m.attempts = 0
	}
	m.cancelTimer()

	ctx, cancel := context.WithCancel(m.ctx)
	s := &socket{
		id:     uuid.New(),
		ctx:    ctx,
		cancel: cancel,
	}
	s.logger = m.logger.With("socket", s.id)
	m.current = s

	m.metrics.IncConnectAttempt()
	m.setState(State{Connecting: true, Error: m.st.Error})

	url := endpointURL(m.cfg.URL, m.token)
	s.logger.Debug("connecting", "url", redactURL(url), "attempt", m.attempts)

	m.wg.Add(1)
	go m.runSocket(s, url)
}

// runSocket dials and pumps frames into the loop until the socket fails.
func (m *manager) runSocket(s *socket, url string) {
	defer m.wg.Done()

	conn, err := m.dialer.Dial(s.ctx, url)
	if err != nil {
		m.post(func() {
			m.handleError(s, err)
			m.handleClose(s)
		})
		return
	}
	if !s.attach(conn) {
		return
	}

	m.post(func() { m.handleOpen(s) })

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.post(func() {
				if isAbnormalClose(err) {
					m.handleError(s, err)
				}
				m.handleClose(s)
			})
			return
		}
		m.post(func() { m.handleMessage(s, data) })
	}
}

func (m *manager) handleOpen(s *socket) {
	if s != m.current {
		s.close()
		return
	}

	s.open = true
	m.attempts = 0
	s.logger.Info("realtime socket connected")

	if m.token != "" {
		if data, err := json.Marshal(protocol.Auth(m.token)); err == nil {
			if err := s.write(data); err != nil {
				s.logger.Warn("failed to send auth frame", "error", err)
			}
		}
	}

	m.metrics.SetConnected(true)
	m.setState(State{Connected: true})

	for _, e := range m.subs {
		if e.sub.OnConnect != nil {
			m.invoke(e.id, "connect", e.sub.OnConnect)
		}
	}
}

func (m *manager) handleMessage(s *socket, data []byte) {
	if s != m.current {
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, protocol.ErrUnknownType) {
			reason = "unknown_type"
		}
		s.logger.Warn("dropping inbound frame", "reason", reason, "error", err, "bytes", len(data))
		m.metrics.IncFrameDropped(reason)
		return
	}
	m.metrics.IncFrameReceived(msg.Type)

	for _, e := range m.subs {
		if e.sub.OnMessage != nil {
			cb := e.sub.OnMessage
			m.invoke(e.id, "message", func() { cb(msg) })
		}
	}
}

func (m *manager) handleError(s *socket, err error) {
	if s != m.current {
		return
	}

	s.logger.Warn("realtime socket error", "error", err)
	m.setState(State{
		Connected:  m.st.Connected,
		Connecting: m.st.Connecting,
		Error:      fmt.Sprintf("realtime connection error: %v", err),
	})
}

func (m *manager) handleClose(s *socket) {
	if s != m.current {
		return
	}

	m.current = nil
	s.close()
	s.logger.Info("realtime socket closed")

	m.metrics.SetConnected(false)
	m.setState(State{Error: m.st.Error})

	for _, e := range m.subs {
		if e.sub.OnDisconnect != nil {
			m.invoke(e.id, "disconnect", e.sub.OnDisconnect)
		}
	}

	m.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer using the aggregated policy.
// The delay is fixed when armed; later policy changes do not reschedule it.
func (m *manager) scheduleReconnect() {
	if len(m.subs) == 0 {
		return
	}

	specs := make([]Subscriber, len(m.subs))
	for i, e := range m.subs {
		specs[i] = e.sub
	}
	p := AggregatePolicy(specs)

	if !p.Enabled {
		m.logger.Debug("auto-reconnect disabled by all subscribers")
		return
	}
	if m.attempts >= p.MaxAttempts {
		m.logger.Warn("giving up on reconnect", "attempts", m.attempts, "max_attempts", p.MaxAttempts)
		m.metrics.IncReconnectExhausted()
		m.setState(State{Error: fmt.Sprintf("%v after %d attempts", ErrReconnectExhausted, m.attempts)})
		return
	}

	delay := Backoff(p.Delay, m.cfg.MaxBackoff, m.attempts)
	m.attempts++
	m.metrics.IncReconnectScheduled()
	m.logger.Info("scheduling reconnect", "attempt", m.attempts, "delay", delay)

	t := &reconnectTimer{}
	t.stop = m.afterFunc(delay, func() {
		m.post(func() {
			if m.timer != t {
				return
			}
			m.timer = nil
			m.connect(false)
		})
	})
	m.timer = t
}

func (m *manager) cancelTimer() {
	if m.timer != nil {
		m.timer.stop()
		m.timer = nil
	}
}

// teardown cancels any pending reconnect, closes the socket and broadcasts
// the disconnected state.
func (m *manager) teardown() {
	m.cancelTimer()
	m.attempts = 0

	if s := m.current; s != nil {
		m.current = nil
		s.close()
		s.logger.Info("realtime socket closed by client")
	}

	m.metrics.SetConnected(false)
	m.setState(State{})
}

// setState records and broadcasts the connection state.
func (m *manager) setState(st State) {
	m.st = st
	m.state.Store(&st)

	for _, e := range m.subs {
		if e.sub.OnStateChange != nil {
			cb := e.sub.OnStateChange
			m.invoke(e.id, "state", func() { cb(st) })
		}
	}
}

// invoke runs a subscriber callback, isolating panics.
func (m *manager) invoke(id SubscriberID, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("subscriber callback panicked",
				"subscriber", id,
				"event", event,
				"panic", r,
			)
		}
	}()
	fn()
}
