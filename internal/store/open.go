package store

import (
	"context"
	"fmt"

	"github.com/rickgao/sessionlink/internal/config"
	"github.com/rickgao/sessionlink/internal/database"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return NewMemory(), nil

	case config.StoreSQLite:
		return OpenSQLite(cfg.Path, cfg.Table)

	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s, err := NewPostgres(ctx, pool, cfg.Table)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil

	case config.StoreRedis:
		return OpenRedis(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
