package kv

import (
	"context"
	"fmt"

	"travelbook/internal/blob"
	blobkv "travelbook/internal/infra/kv/blob"
	"travelbook/internal/infra/kv/memory"
	"travelbook/internal/infra/kv/postgres"
	"travelbook/internal/infra/kv/redis"
	"travelbook/internal/infra/kv/sqlite"
)

// Config selects and parameterises a key-value driver.
type Config struct {
	Driver      string // memory|sqlite|postgres|redis|blob (default sqlite)
	SQLitePath  string
	PostgresDSN string
	RedisURL    string
	Blob        blob.Config // used when Driver=blob
}

// Open builds the kv.Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	case DriverRedis:
		return redis.New(ctx, cfg.RedisURL)
	case DriverBlob:
		bs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob backend: %w", err)
		}
		return blobkv.New(bs), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
