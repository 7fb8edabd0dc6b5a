// Package redis persists key-value pairs on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"travelbook/internal/kv/core"
)

// client is the subset of go-redis the store uses.
type client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Close() error
}

// Store keeps each key as a Redis string. SET replaces the value atomically.
type Store struct {
	rdb client
}

// New parses url (redis://[user:pass@]host:port/db), connects and pings the server.
func New(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New("redis url required")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func newWithClient(c client) *Store { return &Store{rdb: c} }

func (s *Store) Driver() core.Driver { return core.DriverRedis }

func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapErr("get", key, err)
	}
	return v, true, nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return mapErr("set", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return mapErr("del", key, err)
	}
	return nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func mapErr(op, key string, err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return core.ErrClosed
	}
	return fmt.Errorf("redis %s %s: %w", op, key, err)
}
