// Package blob adapts a blob.Store into the key-value primitive: one object per key.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"travelbook/internal/blob"
	"travelbook/internal/kv/core"
)

const contentType = "application/json"

// Store writes every value as a whole object, overwriting in place. The fs
// and s3 drivers both replace objects atomically.
type Store struct {
	blobs blob.Store
}

// New wraps bs.
func New(bs blob.Store) *Store { return &Store{blobs: bs} }

func (s *Store) Driver() core.Driver { return core.DriverBlob }

// Backend reports the wrapped blob driver.
func (s *Store) Backend() blob.Driver { return s.blobs.Driver() }

func (s *Store) Read(ctx context.Context, key string) ([]byte, bool, error) {
	_, rc, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if _, err := s.blobs.Put(ctx, key, bytes.NewReader(value), blob.PutOptions{ContentType: contentType, Overwrite: true}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
