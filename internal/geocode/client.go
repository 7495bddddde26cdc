// Package geocode resolves structured addresses to coordinates through a
// Nominatim-style lookup service with rate limiting, retry and bounding-box
// validation.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Candidate is the best match returned by the lookup service for one query.
type Candidate struct {
	Latitude  float64
	Longitude float64
}

// HTTPDoer abstracts the HTTP client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig carries the external-service contract parameters.
type ClientConfig struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
	// MinDelay is the minimum wall-clock interval between consecutive
	// requests. This is a hard contract of the lookup service, not a
	// performance choice.
	MinDelay   time.Duration
	MaxRetries int
	HTTPClient HTTPDoer
}

// Client issues rate-limited search requests against the lookup service.
type Client struct {
	httpClient  HTTPDoer
	baseURL     string
	userAgent   string
	countryCode string
	limiter     *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
}

// NewClient builds a search client. Zero config fields fall back to the
// defaults observed against the public service.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "estate-pipeline/1.0"
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "pl"
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 1100 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		countryCode: cfg.CountryCode,
		limiter:     rate.NewLimiter(rate.Every(cfg.MinDelay), 1),
		maxRetries:  cfg.MaxRetries,
		backoffBase: time.Second,
	}
}

// Search issues one query and returns the best candidate, or nil when the
// service has no match. Transport failures are retried with exponential
// backoff up to the configured maximum; non-2xx responses and empty result
// arrays are both treated as "no match"; a malformed response body aborts
// without retry.
func (c *Client) Search(ctx context.Context, query string) (*Candidate, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoffBase<<(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		candidate, retryable, err := c.searchOnce(ctx, query)
		if err == nil {
			return candidate, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("search %q: %w", query, lastErr)
}

func (c *Client) searchOnce(ctx context.Context, query string) (candidate *Candidate, retryable bool, err error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", c.countryCode)
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Semantically empty for this query; retrying is futile.
		return nil, false, nil
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}

	return &Candidate{Latitude: lat, Longitude: lon}, false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
