package config

import "time"

// Config is the root configuration for a sessionlink process.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Connection    ConnectionConfig    `yaml:"connection"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Poller        PollerConfig        `yaml:"poller"`
	Store         StoreConfig         `yaml:"store"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	WSURL  string `yaml:"ws_url"`  // Realtime endpoint, e.g. ws://localhost:3000/ws
	APIURL string `yaml:"api_url"` // REST base for snapshot polling
}

// AuthConfig supplies the bearer token. TokenFile wins over Token and is
// watched for changes.
type AuthConfig struct {
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// ConnectionConfig holds realtime connection manager settings.
type ConnectionConfig struct {
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	MaxBackoff           time.Duration `yaml:"max_backoff"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	ReadLimit            int64         `yaml:"read_limit"`
}

// NotificationsConfig controls waiting-session alerts. Unset toggles default to on.
type NotificationsConfig struct {
	Sound   *bool         `yaml:"sound"`
	Desktop *bool         `yaml:"desktop"`
	Title   *bool         `yaml:"title"`
	TTL     time.Duration `yaml:"ttl"`
}

// SoundEnabled reports whether the terminal bell is enabled.
func (n NotificationsConfig) SoundEnabled() bool { return boolOr(n.Sound, true) }

// DesktopEnabled reports whether OS notifications are enabled.
func (n NotificationsConfig) DesktopEnabled() bool { return boolOr(n.Desktop, true) }

// TitleEnabled reports whether the terminal title indicator is enabled.
func (n NotificationsConfig) TitleEnabled() bool { return boolOr(n.Title, true) }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// PollerConfig holds snapshot poller settings.
type PollerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StoreConfig selects the durable key-value backend for dedup records.
type StoreConfig struct {
	Driver   string      `yaml:"driver"` // memory, sqlite, postgres, redis
	Path     string      `yaml:"path"`   // SQLite database file
	Table    string      `yaml:"table"`  // SQLite/Postgres table name
	Postgres DBConfig    `yaml:"postgres"`
	Redis    RedisConfig `yaml:"redis"`
}

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds a Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // auto, text, json
}
