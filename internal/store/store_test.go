package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rickgao/sessionlink/internal/config"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Get(missing) = (_, %v, %v), want (_, false, nil)", ok, err)
	}

	if err := s.Set(ctx, "waiting-notified:s1", "1700000000000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := s.Get(ctx, "waiting-notified:s1")
	if err != nil || !ok || v != "1700000000000" {
		t.Errorf("Get() = (%q, %v, %v), want (1700000000000, true, nil)", v, ok, err)
	}

	if err := s.Set(ctx, "waiting-notified:s1", "1700000000001"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, _, _ := s.Get(ctx, "waiting-notified:s1"); v != "1700000000001" {
		t.Errorf("Get() after overwrite = %q, want 1700000000001", v)
	}

	if err := s.Remove(ctx, "waiting-notified:s1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "waiting-notified:s1"); ok {
		t.Error("Get() after Remove ok = true, want false")
	}

	if err := s.Remove(ctx, "never-set"); err != nil {
		t.Errorf("Remove(absent) error = %v, want nil", err)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after Close error = %v, want ErrClosed", err)
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.db")

	s, err := OpenSQLite(path, "kv")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, "kv")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	reopened, err := OpenSQLite(path, "kv")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if v, ok, err := reopened.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Errorf("Get() after reopen = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}
}

func TestSQLite_InvalidTable(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"), "kv; DROP TABLE x")
	if err == nil {
		t.Error("OpenSQLite() with invalid table error = nil, want error")
	}
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		table   string
		wantErr bool
	}{
		{"sessionlink_kv", false},
		{"_kv2", false},
		{"", true},
		{"2kv", true},
		{"kv-store", true},
		{"kv;drop", true},
	}
	for _, tt := range tests {
		if err := validateTable(tt.table); (err != nil) != tt.wantErr {
			t.Errorf("validateTable(%q) error = %v, wantErr %v", tt.table, err, tt.wantErr)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, config.StoreConfig{Driver: config.StoreMemory})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := mem.(*Memory); !ok {
		t.Errorf("Open(memory) = %T, want *Memory", mem)
	}

	lite, err := Open(ctx, config.StoreConfig{
		Driver: config.StoreSQLite,
		Path:   filepath.Join(t.TempDir(), "store.db"),
		Table:  config.DefaultStoreTable,
	})
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	defer lite.Close()
	if _, ok := lite.(*SQLite); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLite", lite)
	}

	if _, err := Open(ctx, config.StoreConfig{Driver: "etcd"}); err == nil {
		t.Error("Open(etcd) error = nil, want error")
	}
}

func TestPostgres(t *testing.T) {
	if os.Getenv("SESSIONLINK_TEST_POSTGRES_HOST") == "" {
		t.Skip("SESSIONLINK_TEST_POSTGRES_HOST not set")
	}

	cfg := config.Default().Store
	cfg.Driver = config.StorePostgres
	cfg.Table = "sessionlink_kv_test"
	cfg.Postgres.Host = os.Getenv("SESSIONLINK_TEST_POSTGRES_HOST")
	cfg.Postgres.Name = os.Getenv("SESSIONLINK_TEST_POSTGRES_DB")
	cfg.Postgres.User = os.Getenv("SESSIONLINK_TEST_POSTGRES_USER")
	cfg.Postgres.Password = os.Getenv("SESSIONLINK_TEST_POSTGRES_PASSWORD")
	cfg.Postgres.SSLMode = "disable"

	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open(postgres) error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("SESSIONLINK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SESSIONLINK_TEST_REDIS_ADDR not set")
	}

	s, err := OpenRedis(RedisOptions{Addr: addr, Prefix: "sessionlink-test:"})
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}
