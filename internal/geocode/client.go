// Package geocode resolves addresses to coordinates and back through a
// Google-style geocoding JSON API.
package geocode

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultURL = "https://maps.googleapis.com/maps/api/geocode/json"
	cacheTTL   = 30 * 24 * time.Hour
)

var (
	// ErrUnavailable is returned when no API key is configured.
	ErrUnavailable = errors.New("geocoding unavailable")
	// ErrNoResults is returned when the API finds nothing for a query.
	ErrNoResults = errors.New("no geocoding results")
)

// Location is a resolved coordinate pair.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Client calls the geocoding API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	cache      Cache

	// Overridable for testing.
	url string
}

// NewClient creates a geocoding client. An empty key yields ErrUnavailable
// so callers can detect the missing integration at startup. A nil cache
// disables caching.
func NewClient(apiKey, baseURL string, cache Cache) (*Client, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if baseURL == "" {
		baseURL = defaultURL
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		cache:      cache,
		url:        baseURL,
	}, nil
}

// apiResponse is the geocoding API response body.
type apiResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, fmt.Errorf("address is required")
	}

	key := cacheKey("fwd", strings.ToLower(address))
	var loc Location
	if c.cached(ctx, key, &loc) {
		return loc, nil
	}

	resp, err := c.call(ctx, url.Values{"address": {address}})
	if err != nil {
		return Location{}, err
	}
	r := resp.Results[0]
	loc = Location{
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
	}
	c.store(ctx, key, loc)
	return loc, nil
}

// Reverse resolves coordinates to a formatted address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	latlng := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)

	key := cacheKey("rev", latlng)
	var addr string
	if c.cached(ctx, key, &addr) {
		return addr, nil
	}

	resp, err := c.call(ctx, url.Values{"latlng": {latlng}})
	if err != nil {
		return "", err
	}
	addr = resp.Results[0].FormattedAddress
	c.store(ctx, key, addr)
	return addr, nil
}

func (c *Client) call(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("closing geocode response", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		if result.ErrorMessage != "" {
			return nil, fmt.Errorf("geocoding failed: %s: %s", result.Status, result.ErrorMessage)
		}
		return nil, fmt.Errorf("geocoding failed: %s", result.Status)
	}
	if len(result.Results) == 0 {
		return nil, ErrNoResults
	}
	return &result, nil
}

func (c *Client) cached(ctx context.Context, key string, dest interface{}) bool {
	ok, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		slog.Warn("geocode cache read failed", "key", key, "error", err)
		return false
	}
	return ok
}

func (c *Client) store(ctx context.Context, key string, value interface{}) {
	if err := c.cache.Set(ctx, key, value, cacheTTL); err != nil {
		slog.Warn("geocode cache write failed", "key", key, "error", err)
	}
}

func cacheKey(kind, query string) string {
	sum := md5.Sum([]byte(query))
	return "geocode:" + kind + ":" + hex.EncodeToString(sum[:])
}
