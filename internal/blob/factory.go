package blob

import (
	"context"
	"fmt"

	"travelbook/internal/infra/blob/fs"
	"travelbook/internal/infra/blob/memory"
	"travelbook/internal/infra/blob/s3"
)

// S3Config configures the S3-compatible driver.
type S3Config = s3.Config

// Config picks a driver. Driver is fs, s3 or memory; empty means fs.
type Config struct {
	Driver string
	FSRoot string
	S3     S3Config
}

// Open builds the store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch d := Driver(cfg.Driver); d {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", d)
	}
}

// NewFilesystem stores blobs under root (default ./blobdata).
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewMemory returns a process-local store.
func NewMemory() Store { return memory.New() }

// NewS3 connects to an S3-compatible bucket.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3.New(ctx, cfg) }

// NewMockS3ForTests returns an S3 driver whose HTTP transport is an in-memory
// fake, so packages outside internal/blob can exercise the S3 code path.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
