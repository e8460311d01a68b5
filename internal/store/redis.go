package store

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// Redis stores keys in a Redis keyspace under a prefix.
type Redis struct {
	client rueidis.Client
	prefix string
}

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedis connects to Redis.
func OpenRedis(opts RedisOptions) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{opts.Addr},
		Password:     opts.Password,
		SelectDB:     opts.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedis(client, opts.Prefix), nil
}

// NewRedis wraps an existing client. The store takes ownership of it.
func NewRedis(client rueidis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()).ToString()
	if rueidis.IsRedisNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	err := r.client.Do(ctx, r.client.B().Set().Key(r.prefix+key).Value(value).Build()).Error()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	err := r.client.Do(ctx, r.client.B().Del().Key(r.prefix+key).Build()).Error()
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	r.client.Close()
	return nil
}
