package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"travelbook/pkg/domain"
)

var rome = domain.Coordinate{Latitude: 41.9, Longitude: 12.5}

func geoapify(t *testing.T, hits *atomic.Int32, release <-chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if release != nil {
			<-release
		}
		if r.URL.Path != "/v1/geocode/reverse" || r.URL.Query().Get("apiKey") != "secret" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("lat") != "41.9" {
			_, _ = w.Write([]byte(`{"features":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"properties":{"country":"Italy","country_code":"it","city":"Rome"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupParsesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := geoapify(t, &hits, nil)
	c, err := New("secret", 8, WithBaseURL(srv.URL))
	require.NoError(t, err)

	p, err := c.Lookup(context.Background(), rome)
	require.NoError(t, err)
	require.Equal(t, Place{CountryName: "Italy", CountryCode: "it", City: "Rome"}, p)

	_, err = c.Lookup(context.Background(), rome)
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load(), "second lookup served from cache")

	_, err = c.Lookup(context.Background(), domain.Coordinate{Latitude: 10, Longitude: 10})
	require.ErrorIs(t, err, ErrNoResult)
}

func TestLookupCoalescesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := geoapify(t, &hits, release)
	c, err := New("secret", 0, WithBaseURL(srv.URL))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Place, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Lookup(context.Background(), rome)
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	require.Equal(t, int32(1), hits.Load())
	for _, p := range results {
		require.Equal(t, "Rome", p.City)
	}
}

func TestLookupSurvivesFirstCallerCancel(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := geoapify(t, &hits, release)
	c, err := New("secret", 8, WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(ctx, rome)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan Place, 1)
	go func() {
		p, _ := c.Lookup(context.Background(), rome)
		second <- p
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case p := <-second:
		require.Equal(t, "Rome", p.City)
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not get the shared answer")
	}
	require.Equal(t, int32(1), hits.Load())

	p, err := c.Lookup(context.Background(), rome)
	require.NoError(t, err)
	require.Equal(t, "Rome", p.City)
	require.Equal(t, int32(1), hits.Load(), "shared answer was cached")
}

func TestDescribeSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c, err := New("bad", 0, WithBaseURL(srv.URL))
	require.NoError(t, err)
	require.Equal(t, Place{}, c.Describe(context.Background(), domain.Record{ID: "a", MarkedPlace: rome}))

	_, err = c.Lookup(context.Background(), domain.Coordinate{Latitude: 95})
	require.Error(t, err)
}

func TestLookupTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)
	c, err := New("secret", 0, WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), rome)
	require.Error(t, err)
}
