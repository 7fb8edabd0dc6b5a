package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"travelbook/internal/blob/core"
)

func TestMissingKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Head(ctx, "memorized"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("head: expected ErrNotExist, got %v", err)
	}
	if _, _, err := s.Get(ctx, "memorized"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("get: expected ErrNotExist, got %v", err)
	}
	if ok, err := s.Delete(ctx, "memorized"); ok || err != nil {
		t.Fatalf("delete of missing key: %v %v", ok, err)
	}
}

func TestPutGetOverwrite(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := s.Put(ctx, "memorized", strings.NewReader("[]"), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"records": "0"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if first.Size != 2 || first.ETag == "" || !first.LastModified.Equal(fixed) {
		t.Fatalf("unexpected info %+v", first)
	}
	if _, err := s.Put(ctx, "memorized", strings.NewReader("[1]"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("create-only put: expected ErrExists, got %v", err)
	}
	second, err := s.Put(ctx, "memorized", strings.NewReader("[1]"), core.PutOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("etag must change with content")
	}

	info, rc, err := s.Get(ctx, "memorized")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "[1]" || info.ETag != second.ETag {
		t.Fatalf("unexpected content %q %+v", b, info)
	}
}

func TestReturnedMetadataIsCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	meta := map[string]string{"records": "2"}
	if _, err := s.Put(ctx, "exports/a.json", strings.NewReader("[]"), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["records"] = "changed"
	h, _ := s.Head(ctx, "exports/a.json")
	h.Metadata["records"] = "mutated"
	again, _ := s.Head(ctx, "exports/a.json")
	if again.Metadata["records"] != "2" {
		t.Fatalf("metadata leaked: %v", again.Metadata)
	}
}

func TestListAndPresign(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, k := range []string{"exports/b", "memorized", "exports/a"} {
		if _, err := s.Put(ctx, k, strings.NewReader(k), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "exports/")
	if err != nil || len(list) != 2 || list[0].Key != "exports/a" || list[1].Key != "exports/b" {
		t.Fatalf("list = %+v, %v", list, err)
	}
	if _, err := s.PresignURL(ctx, "exports/a", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if s.Driver() != core.DriverMemory {
		t.Fatalf("driver = %s", s.Driver())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestPutErrors(t *testing.T) {
	s := New()
	if _, err := s.Put(context.Background(), "k", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected reader error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from list, got %v", err)
	}
}
