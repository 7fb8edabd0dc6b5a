package records

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"travelbook/internal/blob"
	"travelbook/internal/ident"
	"travelbook/internal/infra/kv/memory"
	"travelbook/pkg/domain"
)

func TestExporterWritesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := New(memory.New())
	require.NoError(t, store.Upsert(ctx, sampleRecord("a")))

	blobs := blob.NewMemory()
	exp := NewExporter(store, blobs, ident.NewSequence("x"))
	exp.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	info, err := exp.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, "exports/20240203T040506Z-x1.json", info.Key)

	_, rc, err := blobs.Get(ctx, info.Key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	var recs []domain.Record
	require.NoError(t, json.Unmarshal(body, &recs))
	require.Len(t, recs, 1)

	_, err = exp.Export(ctx)
	require.NoError(t, err)
	list, err := exp.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, strings.HasSuffix(list[1].Key, "-x2.json"))
}

func TestExporterRefusesCorruptCollection(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Write(ctx, DefaultKey, []byte("nope")))
	exp := NewExporter(New(kv), blob.NewMemory(), nil)
	_, err := exp.Export(ctx)
	var ce *domain.CorruptStateError
	require.ErrorAs(t, err, &ce)
}

func TestExporterLink(t *testing.T) {
	ctx := context.Background()
	exp := NewExporter(New(memory.New()), blob.NewMemory(), nil)
	_, err := exp.Link(ctx, "memorized", time.Minute)
	require.Error(t, err)
	_, err = exp.Link(ctx, "exports/a.json", time.Minute)
	require.True(t, errors.Is(err, blob.ErrUnsupported))

	s3exp := NewExporter(New(memory.New()), blob.NewMockS3ForTests(), nil)
	url, err := s3exp.Link(ctx, "exports/a.json", time.Minute)
	require.NoError(t, err)
	require.Contains(t, url, "exports/a.json")
}
