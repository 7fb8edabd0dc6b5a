package records

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"travelbook/internal/infra/kv/memory"
	"travelbook/internal/observability"
	"travelbook/pkg/domain"
)

func sampleRecord(id string) domain.Record {
	return domain.Record{
		ID:          id,
		Title:       "Rome",
		Description: "Great trip",
		TravelStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TravelEnd:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Location:    domain.RegionAround(domain.Coordinate{Latitude: 41.9, Longitude: 12.5}),
		MarkedPlace: domain.Coordinate{Latitude: 41.9, Longitude: 12.5},
		Pictures:    []domain.Picture{{ID: id + "-p1", SourceRef: "file:///" + id + ".jpg", Caption: "Colosseum"}},
	}
}

// strayMarker returns an otherwise valid record whose marker sits outside
// its viewport.
func strayMarker(id string) domain.Record {
	r := sampleRecord(id)
	r.MarkedPlace = domain.Coordinate{Latitude: 48.85, Longitude: 2.35}
	return r
}

// StoreSuite exercises the record store over the in-memory kv driver.
type StoreSuite struct {
	suite.Suite
	ctx     context.Context
	kv      *memory.Store
	store   *Store
	metrics *observability.ExpvarRecorder
	tracer  *observability.JSONTracer
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = memory.New()
	s.metrics = observability.NewExpvarRecorder("")
	s.tracer = observability.NewJSONTracer(nil)
	s.store = New(s.kv,
		WithMetrics(s.metrics),
		WithTracer(s.tracer),
		WithClock(func() time.Time { return time.Unix(0, 42) }),
	)
}

func (s *StoreSuite) raw() string {
	v, ok, err := s.kv.Read(s.ctx, DefaultKey)
	s.Require().NoError(err)
	if !ok {
		return ""
	}
	return string(v)
}

func (s *StoreSuite) TestEmptyCollection() {
	recs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(recs)
	s.Equal(DefaultKey, s.store.Key())

	_, err = s.store.Get(s.ctx, "missing")
	var nf domain.ErrNotFound
	s.Require().ErrorAs(err, &nf)
	s.Equal(domain.EntityRecord, nf.Entity)
	s.ErrorIs(err, domain.ErrMissing)
}

func (s *StoreSuite) TestUpsertRoundTrip() {
	rec := sampleRecord("a")
	rec.TravelStart = rec.TravelStart.In(time.FixedZone("CET", 3600))
	s.Require().NoError(s.store.Upsert(s.ctx, rec))

	got, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.True(got.Equal(rec), "round trip must preserve every field: %+v", got)
	s.Contains(s.raw(), `"travelTitle":"Rome"`)
}

func (s *StoreSuite) TestUpsertReplacesInPlaceAndAppends() {
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("a")))
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("b")))
	edited := sampleRecord("a")
	edited.Title = "Rome again"
	s.Require().NoError(s.store.Upsert(s.ctx, edited))

	recs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("a", recs[0].ID)
	s.Equal("Rome again", recs[0].Title)
	s.Equal("b", recs[1].ID)
}

func (s *StoreSuite) TestUpsertRejectsInvalidRecord() {
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("a")))
	before := s.raw()

	bad := sampleRecord("b")
	bad.Pictures = nil
	err := s.store.Upsert(s.ctx, bad)
	var ve domain.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Equal(domain.KindMissingPictures, ve.Kind)

	noID := sampleRecord("")
	s.ErrorIs(s.store.Upsert(s.ctx, noID), domain.ErrValidation)
	s.Equal(before, s.raw(), "rejected upserts must not touch the collection")
}

func (s *StoreSuite) TestUpsertRejectsMarkerOutsideLocation() {
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("a")))
	before := s.raw()

	stray := sampleRecord("a")
	stray.Title = "Rome, pinned in Paris"
	stray.MarkedPlace = domain.Coordinate{Latitude: 48.85, Longitude: 2.35}
	err := s.store.Upsert(s.ctx, stray)
	var ve domain.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Equal(domain.KindMissingLocation, ve.Kind)
	s.Equal("markedPlace", ve.Field)
	s.Equal(before, s.raw())

	recs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("Rome", recs[0].Title)
}

func (s *StoreSuite) TestDelete() {
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("a")))
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("b")))
	s.Require().NoError(s.store.Delete(s.ctx, "a"))
	s.Require().NoError(s.store.Delete(s.ctx, "a"), "absent id is a no-op")

	recs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("b", recs[0].ID)
}

func (s *StoreSuite) TestCorruptStateIsDistinctFromEmpty() {
	cases := map[string]string{
		"not json":      "{{{",
		"object":        `{"id":"a"}`,
		"null":          "null",
		"trailing":      `[] []`,
		"duplicate ids": `[` + mustJSON(sampleRecord("a")) + `,` + mustJSON(sampleRecord("a")) + `]`,
		"invalid rec":   `[{"id":"a","travelTitle":"x","pictures":[]}]`,
		"stray marker":  `[` + mustJSON(strayMarker("a")) + `]`,
	}
	for name, blob := range cases {
		s.Run(name, func() {
			s.Require().NoError(s.kv.Write(s.ctx, DefaultKey, []byte(blob)))
			_, err := s.store.List(s.ctx)
			var ce *domain.CorruptStateError
			s.Require().ErrorAs(err, &ce)
			s.Equal(DefaultKey, ce.Key)

			err = s.store.Upsert(s.ctx, sampleRecord("z"))
			s.Require().ErrorAs(err, &ce, "writers must refuse to overwrite a corrupt blob")
			s.ErrorAs(s.store.Delete(s.ctx, "a"), &ce)
			s.Equal(blob, s.raw())
		})
	}
}

func (s *StoreSuite) TestRecoverQuarantinesCorruptBlob() {
	key, err := s.store.Recover(s.ctx)
	s.Require().NoError(err)
	s.Empty(key, "nothing to recover when the key is absent")

	s.Require().NoError(s.kv.Write(s.ctx, DefaultKey, []byte("garbage")))
	key, err = s.store.Recover(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultKey+".corrupt.42", key)

	quarantined, ok, err := s.kv.Read(s.ctx, key)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("garbage", string(quarantined))
	s.Equal("[]", s.raw())

	recs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(recs)

	key, err = s.store.Recover(s.ctx)
	s.Require().NoError(err)
	s.Empty(key, "healthy collection is left alone")
}

func (s *StoreSuite) TestObservability() {
	s.Require().NoError(s.store.Upsert(s.ctx, sampleRecord("a")))
	_, _ = s.store.Get(s.ctx, "missing")

	results := s.metrics.Snapshot().Results
	s.Equal(int64(1), results["records.upsert"]["success"])
	s.Equal(int64(1), results["records.get"]["error"])

	var ops []string
	for _, e := range s.tracer.Entries() {
		ops = append(ops, e.Operation)
	}
	s.Equal([]string{"records.upsert", "records.get"}, ops)
}

func (s *StoreSuite) TestCustomKey() {
	store := New(s.kv, WithKey("journal"), WithKey(""))
	s.Equal("journal", store.Key())
	s.Require().NoError(store.Upsert(s.ctx, sampleRecord("a")))
	s.Empty(s.raw(), "default key untouched")
	v, ok, err := s.kv.Read(s.ctx, "journal")
	s.Require().NoError(err)
	s.True(ok)
	s.True(strings.HasPrefix(string(v), "["))
}

func TestStore_ClosedBackendIsStorageError(t *testing.T) {
	kv := memory.New()
	_ = kv.Close()
	store := New(kv)
	_, err := store.List(context.Background())
	var se *domain.StorageError
	if !errors.As(err, &se) || se.Op != "read" {
		t.Fatalf("expected read StorageError, got %v", err)
	}
}
