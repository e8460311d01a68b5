package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/sessionlink/internal/version"
)

// Conn is one physical WebSocket connection.
type Conn interface {
	// ReadMessage blocks until the next data frame arrives or the connection fails.
	ReadMessage() ([]byte, error)

	// WriteMessage writes one text frame.
	WriteMessage(data []byte) error

	// Close closes the connection. Safe to call more than once.
	Close() error
}

// Dialer opens physical connections to the realtime endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// HandshakeError reports a rejected WebSocket upgrade.
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("websocket handshake failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// wsDialer dials gorilla WebSocket connections.
type wsDialer struct {
	cfg    ClientConfig
	logger *slog.Logger
}

// NewDialer creates a Dialer backed by gorilla/websocket.
func NewDialer(cfg ClientConfig, logger *slog.Logger) Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &wsDialer{cfg: cfg, logger: logger}
}

// Dial establishes the WebSocket connection and starts its heartbeat.
func (d *wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, &HandshakeError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, err
	}

	if d.cfg.ReadLimit > 0 {
		conn.SetReadLimit(d.cfg.ReadLimit)
	}

	c := &wsConn{
		cfg:        d.cfg,
		logger:     d.logger,
		conn:       conn,
		done:       make(chan struct{}),
		lastPingAt: time.Now(),
	}

	// Server ping: answer with pong
	conn.SetPingHandler(func(data string) error {
		c.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	// Pong: reply to our heartbeat ping
	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	if d.cfg.PingInterval > 0 {
		go c.heartbeatLoop()
	}

	d.logger.Debug("websocket connected", "url", redactURL(url))

	return c, nil
}

// wsConn implements Conn over a gorilla connection.
type wsConn struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn *websocket.Conn
	done chan struct{}

	// Write serialization
	writeMu sync.Mutex

	mu         sync.Mutex
	lastPingAt time.Time
	closed     bool
	stale      bool
}

func (c *wsConn) touch() {
	c.mu.Lock()
	c.lastPingAt = time.Now()
	c.mu.Unlock()
}

// ReadMessage returns the next text or binary frame.
func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := c.stale
			c.mu.Unlock()
			if stale {
				return nil, ErrStaleConnection
			}
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// WriteMessage writes a text frame under the configured deadline.
func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal close frame and closes the connection.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	c.writeMu.Lock()
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	return c.conn.Close()
}

// heartbeatLoop pings the server and closes the connection when it goes quiet.
func (c *wsConn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.Lock()
			lastPing := c.lastPingAt
			c.mu.Unlock()

			if c.cfg.PingTimeout > 0 && time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				c.mu.Lock()
				c.stale = true
				c.mu.Unlock()
				// Unblocks ReadMessage, which reports ErrStaleConnection.
				c.conn.Close()
				return
			}
		}
	}
}

// isAbnormalClose reports whether a read error should surface as a connection
// error before the close is handled.
func isAbnormalClose(err error) bool {
	if err == nil {
		return false
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code != websocket.CloseNormalClosure && ce.Code != websocket.CloseGoingAway
	}
	return true
}
