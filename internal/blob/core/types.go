// Package core holds the object storage contract implemented under
// internal/infra/blob. Record snapshots and the blob-backed record
// collection are both written through it.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names an object storage backend.
type Driver string

// Known drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

var (
	// ErrNotExist is matched by Get and Head for a key that was never written
	// or has been deleted.
	ErrNotExist = errors.New("blob: no such key")
	// ErrExists is returned by a create-only Put on a taken key.
	ErrExists = errors.New("blob: key already exists")
	// ErrUnsupported marks an optional capability the driver lacks.
	ErrUnsupported = errors.New("blob: unsupported by driver")
)

// PutOptions tunes a single write.
type PutOptions struct {
	ContentType string
	// Metadata is stored alongside the object and returned by Head.
	Metadata map[string]string
	// Overwrite replaces an existing object atomically; readers never see a
	// partial write. Without it Put is create-only.
	Overwrite bool
}

// SignedURLOptions tunes PresignURL. Only GET is signed; the zero Method
// means GET and the zero Expiry means 15 minutes.
type SignedURLOptions struct {
	Method string
	Expiry time.Duration
}

// Info is what a driver knows about a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is a flat key/object namespace.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects under prefix sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}
