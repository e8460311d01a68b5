package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL                = "ws://localhost:3000/ws"
	DefaultAPIURL               = "http://localhost:3000"
	DefaultReconnectInterval    = 1 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultMaxBackoff           = 30 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultPingTimeout          = 90 * time.Second
	DefaultReadLimit            = 1 << 20
	DefaultNotificationTTL      = 6 * time.Hour
	DefaultPollInterval         = 15 * time.Second
	DefaultPollTimeout          = 10 * time.Second
	DefaultPollMaxRetries       = 3
	DefaultStoreDriver          = StoreSQLite
	DefaultSQLitePath           = "sessionlink.db"
	DefaultStoreTable           = "sessionlink_kv"
	DefaultRedisPrefix          = "sessionlink:"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "auto"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.WSURL == "" {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.APIURL == "" {
		c.Server.APIURL = DefaultAPIURL
	}

	// Connection defaults
	if c.Connection.ReconnectInterval == 0 {
		c.Connection.ReconnectInterval = DefaultReconnectInterval
	}
	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Connection.MaxBackoff == 0 {
		c.Connection.MaxBackoff = DefaultMaxBackoff
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.ReadLimit == 0 {
		c.Connection.ReadLimit = DefaultReadLimit
	}

	// Notification defaults
	if c.Notifications.TTL == 0 {
		c.Notifications.TTL = DefaultNotificationTTL
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}
	if c.Poller.MaxRetries == 0 {
		c.Poller.MaxRetries = DefaultPollMaxRetries
	}

	// Store defaults
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultSQLitePath
	}
	if c.Store.Table == "" {
		c.Store.Table = DefaultStoreTable
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = DefaultRedisPrefix
	}
	applyDBDefaults(&c.Store.Postgres)

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
