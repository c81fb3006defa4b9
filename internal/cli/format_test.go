package cli

import (
	"testing"

	"github.com/evcraddock/house-market/internal/property"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		listing  property.ListingType
		expected string
	}{
		{"zero", 0, property.ListingSale, "$0"},
		{"small", 999, property.ListingSale, "$999"},
		{"thousands", 250000, property.ListingSale, "$250,000"},
		{"millions", 1000000, property.ListingSale, "$1,000,000"},
		{"rent", 2400, property.ListingRent, "$2,400/mo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatPrice(tt.price, tt.listing)
			if result != tt.expected {
				t.Errorf("formatPrice(%d, %s) = %q, want %q", tt.price, tt.listing, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestOrDash(t *testing.T) {
	if got := orDash(""); got != "-" {
		t.Errorf("orDash(\"\") = %q", got)
	}
	if got := orDash("condo"); got != "condo" {
		t.Errorf("orDash(condo) = %q", got)
	}
}
