package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  ws_url: wss://example.com/ws
  api_url: https://example.com
auth:
  token: abc
connection:
  reconnect_interval: 500ms
  max_reconnect_attempts: 3
notifications:
  sound: false
  ttl: 1h
store:
  driver: redis
  redis:
    addr: localhost:6379
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.WSURL != "wss://example.com/ws" {
		t.Errorf("Server.WSURL = %q, want %q", cfg.Server.WSURL, "wss://example.com/ws")
	}
	if cfg.Auth.Token != "abc" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "abc")
	}
	if cfg.Connection.ReconnectInterval != 500*time.Millisecond {
		t.Errorf("Connection.ReconnectInterval = %v, want 500ms", cfg.Connection.ReconnectInterval)
	}
	if cfg.Connection.MaxReconnectAttempts != 3 {
		t.Errorf("Connection.MaxReconnectAttempts = %d, want 3", cfg.Connection.MaxReconnectAttempts)
	}
	if cfg.Notifications.SoundEnabled() {
		t.Error("Notifications.SoundEnabled() = true, want false")
	}
	if !cfg.Notifications.DesktopEnabled() {
		t.Error("Notifications.DesktopEnabled() = false, want true by default")
	}
	if cfg.Notifications.TTL != time.Hour {
		t.Errorf("Notifications.TTL = %v, want 1h", cfg.Notifications.TTL)
	}
	if cfg.Store.Redis.Addr != "localhost:6379" {
		t.Errorf("Store.Redis.Addr = %q, want %q", cfg.Store.Redis.Addr, "localhost:6379")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SESSIONLINK_TOKEN", "secret123")

	yaml := `
auth:
  token: ${TEST_SESSIONLINK_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.Token != "secret123" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "secret123")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}

	path := writeTempFile(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load(invalid yaml) error = nil, want error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "auth:\n  token: abc\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Server.WSURL != DefaultWSURL {
		t.Errorf("Server.WSURL = %q, want default %q", cfg.Server.WSURL, DefaultWSURL)
	}
	if cfg.Connection.ReconnectInterval != DefaultReconnectInterval {
		t.Errorf("Connection.ReconnectInterval = %v, want default %v", cfg.Connection.ReconnectInterval, DefaultReconnectInterval)
	}
	if cfg.Connection.MaxBackoff != DefaultMaxBackoff {
		t.Errorf("Connection.MaxBackoff = %v, want default %v", cfg.Connection.MaxBackoff, DefaultMaxBackoff)
	}
	if cfg.Notifications.TTL != DefaultNotificationTTL {
		t.Errorf("Notifications.TTL = %v, want default %v", cfg.Notifications.TTL, DefaultNotificationTTL)
	}
	if cfg.Store.Driver != DefaultStoreDriver {
		t.Errorf("Store.Driver = %q, want default %q", cfg.Store.Driver, DefaultStoreDriver)
	}
	if cfg.Store.Postgres.Port != DefaultDBPort {
		t.Errorf("Store.Postgres.Port = %d, want default %d", cfg.Store.Postgres.Port, DefaultDBPort)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestLoadAndValidate_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadAndValidate("")
	if err != nil {
		t.Fatalf("LoadAndValidate(\"\") error = %v", err)
	}
	if cfg.Server.APIURL != DefaultAPIURL {
		t.Errorf("Server.APIURL = %q, want default %q", cfg.Server.APIURL, DefaultAPIURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing ws url",
			mutate:  func(c *Config) { c.Server.WSURL = "" },
			wantErr: "server.ws_url is required",
		},
		{
			name:    "ws url wrong scheme",
			mutate:  func(c *Config) { c.Server.WSURL = "http://localhost/ws" },
			wantErr: `server.ws_url must use scheme [ws wss], got "http"`,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Connection.MaxReconnectAttempts = -1 },
			wantErr: "connection.max_reconnect_attempts must be >= 1",
		},
		{
			name: "backoff cap below interval",
			mutate: func(c *Config) {
				c.Connection.ReconnectInterval = time.Minute
				c.Connection.MaxBackoff = time.Second
			},
			wantErr: "connection.max_backoff (1s) cannot be less than reconnect_interval (1m0s)",
		},
		{
			name:    "unknown store driver",
			mutate:  func(c *Config) { c.Store.Driver = "etcd" },
			wantErr: `store.driver must be one of memory, sqlite, postgres, redis, got "etcd"`,
		},
		{
			name:    "postgres missing host",
			mutate:  func(c *Config) { c.Store.Driver = StorePostgres },
			wantErr: "store.postgres.host is required",
		},
		{
			name: "postgres min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Store.Driver = StorePostgres
				c.Store.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 2, MinConns: 5}
			},
			wantErr: "store.postgres.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:    "redis missing addr",
			mutate:  func(c *Config) { c.Store.Driver = StoreRedis },
			wantErr: "store.redis.addr is required",
		},
		{
			name: "metrics port out of range",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level must be one of debug, info, warn, error, got "trace"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestLoadAndValidate_WrapsError(t *testing.T) {
	path := writeTempFile(t, "store:\n  driver: etcd\n")

	_, err := LoadAndValidate(path)
	if err == nil || !strings.HasPrefix(err.Error(), "validate config:") {
		t.Errorf("LoadAndValidate() error = %v, want validate config prefix", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
