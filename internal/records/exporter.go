package records

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"travelbook/internal/blob"
	"travelbook/internal/ident"
	"travelbook/pkg/domain"
)

// ExportPrefix is the blob key prefix export snapshots are written under.
const ExportPrefix = "exports/"

// Lister is the read side of the record store an exporter snapshots.
type Lister interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// Exporter writes point-in-time copies of the collection to a blob store.
type Exporter struct {
	records Lister
	blobs   blob.Store
	ids     ident.Generator
	now     func() time.Time
}

// NewExporter returns an exporter snapshotting records into blobs.
func NewExporter(records Lister, blobs blob.Store, ids ident.Generator) *Exporter {
	if ids == nil {
		ids = ident.UUID{}
	}
	return &Exporter{records: records, blobs: blobs, ids: ids, now: time.Now}
}

// Export writes the current collection as exports/<timestamp>-<id>.json.
// A corrupt collection is never exported.
func (e *Exporter) Export(ctx context.Context) (blob.Info, error) {
	recs, err := e.records.List(ctx)
	if err != nil {
		return blob.Info{}, err
	}
	data, err := encode(recs)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode export: %w", err)
	}
	key := fmt.Sprintf("%s%s-%s.json", ExportPrefix, e.now().UTC().Format("20060102T150405Z"), e.ids.NewID())
	info, err := e.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"records": fmt.Sprint(len(recs))},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("write export %s: %w", key, err)
	}
	return info, nil
}

// List returns existing exports sorted by key, oldest first.
func (e *Exporter) List(ctx context.Context) ([]blob.Info, error) {
	return e.blobs.List(ctx, ExportPrefix)
}

// Link presigns a download URL for an export. Drivers without URL signing
// return blob.ErrUnsupported.
func (e *Exporter) Link(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if !strings.HasPrefix(key, ExportPrefix) {
		return "", fmt.Errorf("%s is not an export key", key)
	}
	return e.blobs.PresignURL(ctx, key, blob.SignedURLOptions{Expiry: expiry})
}
