// Package records owns the persisted travel-journal collection. The whole
// collection lives under one key of a kv.Store and every change is a
// read-modify-write of that value, serialized through a single writer.
package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"travelbook/internal/kv"
	"travelbook/internal/observability"
	"travelbook/pkg/domain"
)

// DefaultKey is the storage key the collection is persisted under.
const DefaultKey = "memorized"

// Store is the single owner of the persisted collection.
type Store struct {
	kv      kv.Store
	key     string
	mu      sync.Mutex // held for the full read-modify-write of every writer
	logger  *slog.Logger
	metrics observability.Recorder
	tracer  observability.Tracer
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for storage faults and recovery.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder that observes every operation.
func WithMetrics(r observability.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithTracer sets the tracer that spans every operation.
func WithTracer(t observability.Tracer) Option {
	return func(s *Store) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the clock used to name quarantined blobs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store persisting through backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      backend,
		key:     DefaultKey,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: observability.NopRecorder{},
		tracer:  observability.NopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string { return s.key }

// List returns every record in persisted order.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	var out []domain.Record
	err := s.run(ctx, "records.list", func(ctx context.Context) error {
		recs, err := s.load(ctx)
		out = recs
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the record with id, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.Record, error) {
	var out domain.Record
	err := s.run(ctx, "records.get", func(ctx context.Context) error {
		recs, err := s.load(ctx)
		if err != nil {
			return err
		}
		i := indexOf(recs, id)
		if i < 0 {
			return domain.ErrNotFound{Entity: domain.EntityRecord, ID: id}
		}
		out = recs[i]
		return nil
	})
	return out, err
}

// Upsert replaces the record with the same id in place, or appends it.
// Records that violate the stored-record invariants are rejected with a
// validation error and the collection is left untouched.
func (s *Store) Upsert(ctx context.Context, rec domain.Record) error {
	return s.run(ctx, "records.upsert", func(ctx context.Context) error {
		rec = rec.Normalize()
		if err := domain.ValidateRecord(rec); err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		recs, err := s.load(ctx)
		if err != nil {
			return err
		}
		if i := indexOf(recs, rec.ID); i >= 0 {
			recs[i] = rec
		} else {
			recs = append(recs, rec)
		}
		return s.save(ctx, s.key, recs)
	})
}

// Delete removes the record with id. An absent id is not an error and
// leaves the persisted value untouched.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.run(ctx, "records.delete", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		recs, err := s.load(ctx)
		if err != nil {
			return err
		}
		i := indexOf(recs, id)
		if i < 0 {
			return nil
		}
		return s.save(ctx, s.key, slices.Delete(recs, i, i+1))
	})
}

// Recover quarantines a corrupt collection under <key>.corrupt.<unix-nanos>
// and resets the key to an empty collection. It returns the quarantine key,
// or "" when the stored collection is absent or healthy.
func (s *Store) Recover(ctx context.Context) (string, error) {
	var quarantine string
	err := s.run(ctx, "records.recover", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		raw, ok, err := s.kv.Read(ctx, s.key)
		if err != nil {
			return s.storageErr(ctx, "read", s.key, err)
		}
		if !ok {
			return nil
		}
		_, cause := decode(raw)
		if cause == nil {
			return nil
		}
		qkey := fmt.Sprintf("%s.corrupt.%d", s.key, s.now().UnixNano())
		if err := s.kv.Write(ctx, qkey, raw); err != nil {
			return s.storageErr(ctx, "write", qkey, err)
		}
		if err := s.save(ctx, s.key, nil); err != nil {
			return err
		}
		quarantine = qkey
		s.logger.WarnContext(ctx, "corrupt record collection quarantined",
			"key", s.key, "quarantine_key", qkey, "bytes", len(raw), "cause", cause)
		return nil
	})
	return quarantine, err
}

func (s *Store) load(ctx context.Context) ([]domain.Record, error) {
	raw, ok, err := s.kv.Read(ctx, s.key)
	if err != nil {
		return nil, s.storageErr(ctx, "read", s.key, err)
	}
	if !ok {
		return []domain.Record{}, nil
	}
	recs, err := decode(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored record collection is corrupt", "key", s.key, "error", err)
		return nil, &domain.CorruptStateError{Key: s.key, Err: err}
	}
	return recs, nil
}

func (s *Store) save(ctx context.Context, key string, recs []domain.Record) error {
	data, err := encode(recs)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := s.kv.Write(ctx, key, data); err != nil {
		return s.storageErr(ctx, "write", key, err)
	}
	return nil
}

func (s *Store) storageErr(ctx context.Context, op, key string, err error) error {
	s.logger.ErrorContext(ctx, "record storage failed", "op", op, "key", key, "driver", s.kv.Driver(), "error", err)
	return &domain.StorageError{Op: op, Key: key, Err: err}
}

func (s *Store) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil && errors.Is(err, domain.ErrValidation) {
		s.logger.DebugContext(ctx, "record rejected", "op", op, "error", err)
	}
	return err
}

func indexOf(recs []domain.Record, id string) int {
	return slices.IndexFunc(recs, func(r domain.Record) bool { return r.ID == id })
}
