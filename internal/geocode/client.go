package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/trips"
)

// Sentinel conditions the caller may want to distinguish
var (
	ErrNotFound    = errors.New("geocode: no place found")
	ErrRateLimited = errors.New("geocode: rate limited")
)

// Client queries a Nominatim-compatible reverse geocoding endpoint.
// Retry is an explicit, bounded policy: Attempts of 1 means a single try.
type Client struct {
	BaseURL    string
	Email      string
	Attempts   int
	Backoff    time.Duration
	HTTPClient *http.Client

	cache  *Cache
	logger *zap.SugaredLogger
}

// NewClient builds a client from the geocoder configuration. The cache
// is optional and enabled by setting geocoder.cache-path.
func NewClient(cfg *config.GeocoderConfig, logger *zap.SugaredLogger) (*Client, error) {
	c := &Client{
		BaseURL:    cfg.URL,
		Email:      cfg.Email,
		Attempts:   cfg.Attempts,
		Backoff:    time.Duration(cfg.BackoffSeconds) * time.Second,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	if cfg.CachePath != "" {
		cache, err := OpenCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("error opening geocode cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// Close releases the cache, if any
func (c *Client) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// Resolve maps a coordinate to a place. Transient failures (network
// errors, rate limiting, server errors) are retried up to Attempts times
// with a fixed backoff; a "no place" answer is returned immediately.
func (c *Client) Resolve(ctx context.Context, position trips.Position) (*Place, error) {
	if c.cache != nil {
		if place, ok := c.cache.Get(position); ok {
			return place, nil
		}
	}

	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if c.logger != nil {
				c.logger.Debugw("retrying geocode request", "attempt", attempt, "position", position.String())
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Backoff):
			}
		}

		place, err := c.resolveOnce(ctx, position)
		if err == nil {
			if c.cache != nil {
				c.cache.Put(position, place)
			}
			return place, nil
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) resolveOnce(ctx context.Context, position trips.Position) (*Place, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", position.Latitude))
	query.Set("lon", fmt.Sprintf("%f", position.Longitude))
	if c.Email != "" {
		query.Set("email", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "voyagelog")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading geocode response: %w", err)
	}

	// Nominatim reports "unable to geocode" as an error field in an
	// otherwise successful response
	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
		return nil, ErrNotFound
	}

	place := &Place{}
	if err := json.Unmarshal(body, place); err != nil {
		return nil, fmt.Errorf("error decoding geocode response: %w", err)
	}
	if place.DisplayName == "" {
		return nil, ErrNotFound
	}

	return place, nil
}
