package connection

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/sessionlink/internal/protocol"
)

// Errors
var (
	ErrNotConnected       = errors.New("not connected")
	ErrStaleConnection    = errors.New("connection stale (no ping)")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// Defaults shared by ManagerConfig and subscribers that leave fields unset.
const (
	DefaultReconnectInterval    = 1 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultMaxBackoff           = 30 * time.Second
)

// State is the connection state broadcast to every subscriber.
// Connected and Connecting are never both true.
type State struct {
	Connected  bool
	Connecting bool
	Error      string // Empty when no error is recorded
}

// SubscriberID identifies a registered subscriber.
type SubscriberID uuid.UUID

func (id SubscriberID) String() string {
	return uuid.UUID(id).String()
}

// Subscriber describes one consumer of the shared socket.
// Callbacks run on the manager's event loop and must not block.
type Subscriber struct {
	OnMessage     func(protocol.Message)
	OnConnect     func()
	OnDisconnect  func()
	OnStateChange func(State)

	// AutoReconnect opts this subscriber into reconnection after a drop.
	AutoReconnect bool

	// ReconnectInterval is the base backoff delay. Zero uses the manager default.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive reconnects. Zero uses the manager default.
	MaxReconnectAttempts int
}

// ClientConfig configures the WebSocket transport.
type ClientConfig struct {
	HandshakeTimeout time.Duration // Dial handshake deadline
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Client ping period (0 = disabled)
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	ReadLimit        int64         // Max inbound frame size in bytes (0 = unlimited)
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		ReadLimit:        1 << 20,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL                  string        // Realtime endpoint (e.g., ws://localhost:3000/ws)
	ReconnectInterval    time.Duration // Default subscriber reconnect interval
	MaxReconnectAttempts int           // Default subscriber max attempts
	MaxBackoff           time.Duration // Backoff cap
	Client               ClientConfig
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectInterval:    DefaultReconnectInterval,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		MaxBackoff:           DefaultMaxBackoff,
		Client:               DefaultClientConfig(),
	}
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Subscribers       int
	Connected         bool
	Connecting        bool
	ReconnectAttempts int
	ReconnectPending  bool
}
