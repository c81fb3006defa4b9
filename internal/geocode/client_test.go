package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	if _, err := NewClient("", "", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	c, err := NewClient("key", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.url != defaultURL {
		t.Errorf("url = %q, want default", c.url)
	}
}

func TestGeocode(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantLat    float64
		wantErr    error
		anyErr     bool
	}{
		{
			name:       "ok",
			response:   `{"status":"OK","results":[{"formatted_address":"1 Congress Ave, Austin, TX","geometry":{"location":{"lat":30.26,"lng":-97.74}}}]}`,
			statusCode: http.StatusOK,
			wantLat:    30.26,
		},
		{
			name:       "zero results",
			response:   `{"status":"ZERO_RESULTS","results":[]}`,
			statusCode: http.StatusOK,
			wantErr:    ErrNoResults,
		},
		{
			name:       "denied",
			response:   `{"status":"REQUEST_DENIED","error_message":"bad key"}`,
			statusCode: http.StatusOK,
			anyErr:     true,
		},
		{
			name:       "server error",
			response:   `{}`,
			statusCode: http.StatusInternalServerError,
			anyErr:     true,
		},
		{
			name:       "invalid json",
			response:   `not json`,
			statusCode: http.StatusOK,
			anyErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("key") != "test-key" {
					t.Errorf("key = %q", r.URL.Query().Get("key"))
				}
				if r.URL.Query().Get("address") != "1 Congress Ave" {
					t.Errorf("address = %q", r.URL.Query().Get("address"))
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c, err := NewClient("test-key", srv.URL, nil)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			loc, err := c.Geocode(context.Background(), "1 Congress Ave")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.anyErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loc.Lat != tt.wantLat {
				t.Errorf("lat = %f, want %f", loc.Lat, tt.wantLat)
			}
		})
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	c, _ := NewClient("k", "http://127.0.0.1:1", nil)
	if _, err := c.Geocode(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latlng"); got != "30.260000,-97.740000" {
			t.Errorf("latlng = %q", got)
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Austin, TX"}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient("k", srv.URL, nil)
	addr, err := c.Reverse(context.Background(), 30.26, -97.74)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if addr != "Austin, TX" {
		t.Errorf("addr = %q", addr)
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func TestGeocodeUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"X","geometry":{"location":{"lat":1,"lng":2}}}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient("k", srv.URL, &memCache{data: map[string][]byte{}})
	for i := 0; i < 3; i++ {
		loc, err := c.Geocode(context.Background(), "Main St")
		if err != nil {
			t.Fatalf("geocode %d: %v", i, err)
		}
		if loc.Lng != 2 {
			t.Errorf("lng = %f, want 2", loc.Lng)
		}
	}
	// Case differences share a cache entry.
	if _, err := c.Geocode(context.Background(), "MAIN ST"); err != nil {
		t.Fatalf("geocode upper: %v", err)
	}
	if calls != 1 {
		t.Errorf("api calls = %d, want 1", calls)
	}
}
