// Package core defines the key-value primitive the record store persists through.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key-value backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process (tests, ephemeral runs)
	DriverSQLite   Driver = "sqlite"   // local file (default)
	DriverPostgres Driver = "postgres" // shared database
	DriverRedis    Driver = "redis"    // remote cache server
	DriverBlob     Driver = "blob"     // one object per key in a blob.Store
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store maps string keys to opaque byte values. Read reports ok=false for an
// absent key; absence is never an error. Write replaces the whole value.
type Store interface {
	Driver() Driver
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
