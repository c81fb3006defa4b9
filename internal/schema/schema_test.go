package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewCompilesEmbeddedSchemas(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := v.Names(); !reflect.DeepEqual(got, []string{Alert, Property}) {
		t.Errorf("names = %v", got)
	}
}

func TestValidateProperty(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"minimal", `{"address": "1 Oak St", "price": 300000}`, ""},
		{"title only", `{"title": "Loft", "price": 2100, "listing_type": "rent"}`, ""},
		{"full", `{"address": "1 Oak St", "city": "Austin", "price": 1, "bedrooms": 2.5, "sqft": 900,
			"features": ["pool"], "images": ["https://img.example.com/a.jpg"], "latitude": 30.2, "longitude": -97.7}`, ""},
		{"missing price", `{"address": "1 Oak St"}`, "price"},
		{"negative price", `{"address": "1 Oak St", "price": -5}`, "price"},
		{"fractional price", `{"address": "1 Oak St", "price": 10.5}`, "price"},
		{"no address or title", `{"price": 5}`, "address"},
		{"bad listing type", `{"address": "x", "price": 5, "listing_type": "lease"}`, "listing_type"},
		{"negative sqft", `{"address": "x", "price": 5, "sqft": -1}`, "sqft"},
		{"latitude out of range", `{"address": "x", "price": 5, "latitude": 91}`, "latitude"},
		{"unknown field", `{"address": "x", "price": 5, "rating": 4}`, "rating"},
		{"not json", `{"address": `, "not valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(Property, []byte(tt.body))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAlert(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"name": "Austin", "frequency": "daily", "criteria": {"location": "austin", "min_price": 200000}}`, true},
		{"empty criteria", `{"name": "All", "criteria": {}}`, true},
		{"missing name", `{"criteria": {}}`, false},
		{"empty name", `{"name": "", "criteria": {}}`, false},
		{"bad frequency", `{"name": "x", "frequency": "hourly", "criteria": {}}`, false},
		{"unknown criterion", `{"name": "x", "criteria": {"pets": true}}`, false},
		{"negative bound", `{"name": "x", "criteria": {"max_price": -1}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(Alert, []byte(tt.body))
			if tt.ok != (err == nil) {
				t.Errorf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := v.Validate("nope", []byte(`{}`)); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want lookup error", err)
	}
}
