// Package kv re-exports the key-value contract and selects a driver. Callers
// outside internal/kv depend on kv.Store, never on the infra drivers directly.
package kv

import (
	"travelbook/internal/kv/core"
)

type (
	// Driver identifies a key-value backend driver.
	Driver = core.Driver
	// Store is the key-value primitive.
	Store = core.Store
)

const (
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
	DriverRedis    = core.DriverRedis
	DriverBlob     = core.DriverBlob
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = core.ErrClosed
