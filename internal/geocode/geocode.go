// Package geocode resolves a record's marked place to a country and city for
// display. Results are never written back to the record store.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"travelbook/pkg/domain"
)

const (
	DefaultBaseURL   = "https://api.geoapify.com"
	DefaultTimeout   = 5 * time.Second
	defaultCacheSize = 256
)

// ErrNoResult is returned when the service knows nothing about a point.
var ErrNoResult = errors.New("geocode: no result")

// Place is the display information for a point.
type Place struct {
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
}

// Client calls the Geoapify reverse geocoding endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
	cache   *lru.Cache[string, Place]
	group   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each lookup. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client using apiKey. cacheSize <= 0 uses a default size.
func New(apiKey string, cacheSize int, opts ...Option) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, Place](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:   cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type reverseResponse struct {
	Features []struct {
		Properties struct {
			Country     string `json:"country"`
			CountryCode string `json:"country_code"`
			City        string `json:"city"`
		} `json:"properties"`
	} `json:"features"`
}

// Lookup resolves c. Concurrent lookups of the same point share one request
// and successful answers are cached. The shared request is bounded by the
// client timeout only; a caller whose ctx ends returns early without
// cancelling it for the others.
func (c *Client) Lookup(ctx context.Context, at domain.Coordinate) (Place, error) {
	if !at.Valid() {
		return Place{}, fmt.Errorf("geocode: invalid coordinate %v,%v", at.Latitude, at.Longitude)
	}
	key := cacheKey(at)
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return Place{}, err
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		p, err := c.fetch(shared, at)
		if err != nil {
			return Place{}, err
		}
		c.cache.Add(key, p)
		return p, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Place{}, res.Err
		}
		return res.Val.(Place), nil
	case <-ctx.Done():
		return Place{}, ctx.Err()
	}
}

// Describe looks up a record's marked place. Failures are logged at debug
// level and yield an empty Place.
func (c *Client) Describe(ctx context.Context, rec domain.Record) Place {
	p, err := c.Lookup(ctx, rec.MarkedPlace)
	if err != nil {
		c.logger.DebugContext(ctx, "reverse geocode failed", "record", rec.ID, "error", err)
		return Place{}
	}
	return p
}

func (c *Client) fetch(ctx context.Context, at domain.Coordinate) (Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	q.Set("apiKey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/geocode/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("geocode request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	var body reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("geocode decode: %w", err)
	}
	if len(body.Features) == 0 {
		return Place{}, ErrNoResult
	}
	props := body.Features[0].Properties
	return Place{CountryName: props.Country, CountryCode: props.CountryCode, City: props.City}, nil
}

func cacheKey(at domain.Coordinate) string {
	return strconv.FormatFloat(at.Latitude, 'f', 5, 64) + "," + strconv.FormatFloat(at.Longitude, 'f', 5, 64)
}
