package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"travelbook/internal/kv/core"
)

// fakeClient answers with pre-built go-redis results over a map.
type fakeClient struct {
	mu     sync.Mutex
	data   map[string][]byte
	err    error
	closed bool
}

func newFake() *fakeClient { return &fakeClient{data: map[string][]byte{}} }

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(string(v), nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.data[key] = append([]byte(nil), value.([]byte)...)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestStore_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := newWithClient(fake)
	if s.Driver() != core.DriverRedis {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, ok, err := s.Read(ctx, "memorized"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := s.Write(ctx, "memorized", []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok, err := s.Read(ctx, "memorized")
	if err != nil || !ok || string(got) != "[]" {
		t.Fatalf("read: %q %v %v", got, ok, err)
	}
	if err := s.Delete(ctx, "memorized"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Read(ctx, "memorized"); ok {
		t.Fatalf("expected deleted")
	}
	_ = s.Close()
	if !fake.closed {
		t.Fatalf("close must reach the client")
	}
}

func TestStore_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := newWithClient(fake)
	fake.err = goredis.ErrClosed
	if _, _, err := s.Read(ctx, "k"); !errors.Is(err, core.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	boom := errors.New("connection reset")
	fake.err = boom
	if err := s.Write(ctx, "k", []byte("v")); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if err := s.Delete(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := New(ctx, "http://not-redis"); err == nil {
		t.Fatalf("expected parse error")
	}
}

// TestLiveServer runs against a real server when TRAVELBOOK_TEST_REDIS_URL is set.
func TestLiveServer(t *testing.T) {
	url := os.Getenv("TRAVELBOOK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TRAVELBOOK_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()
	key := "travelbook-test-" + t.Name()
	defer func() { _ = s.Delete(ctx, key) }()
	if err := s.Write(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok, err := s.Read(ctx, key)
	if err != nil || !ok || string(got) != "[]" {
		t.Fatalf("read: %q %v %v", got, ok, err)
	}
}
