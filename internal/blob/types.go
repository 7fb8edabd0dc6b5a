// Package blob is the single entry point to object storage. It re-exports the
// contract from core and builds drivers; nothing outside this package imports
// internal/infra/blob.
package blob

import "travelbook/internal/blob/core"

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotExist    = core.ErrNotExist
	ErrExists      = core.ErrExists
	ErrUnsupported = core.ErrUnsupported
)
