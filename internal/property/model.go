// Package property provides the property domain model and data access.
package property

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property not found")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid property")
	// ErrForbidden is returned when a user changes a listing they do not own.
	ErrForbidden = errors.New("not the listing owner")
)

// ListingType says whether a property is for sale or for rent.
type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

// ValidListingType returns true if s is a known listing type.
func ValidListingType(s string) bool {
	switch ListingType(s) {
	case ListingSale, ListingRent:
		return true
	}
	return false
}

// Property is a listed real-estate record. Nil optional fields mean unknown.
type Property struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	Price        int64       `json:"price"`
	PropertyType string      `json:"property_type"`
	ListingType  ListingType `json:"listing_type"`
	Bedrooms     *float64    `json:"bedrooms,omitempty"`
	Bathrooms    *float64    `json:"bathrooms,omitempty"`
	Sqft         *int64      `json:"sqft,omitempty"`
	YearBuilt    *int64      `json:"year_built,omitempty"`
	Features     []string    `json:"features"`
	Description  string      `json:"description"`
	Images       []string    `json:"images"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
	Geohash      string      `json:"geohash,omitempty"`
	OwnerID      int64       `json:"owner_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Size returns the floor area, treating unknown as 0.
func (p *Property) Size() int64 {
	if p.Sqft == nil {
		return 0
	}
	return *p.Sqft
}

// FullAddress joins address and city for geocoding.
func (p *Property) FullAddress() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{p.Address, p.City} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// HasLocation reports whether both coordinates are known.
func (p *Property) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Validate checks write-time invariants and fills defaults.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Address) == "" && strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title or address is required", ErrInvalid)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	if p.ListingType == "" {
		p.ListingType = ListingSale
	}
	if !ValidListingType(string(p.ListingType)) {
		return fmt.Errorf("%w: listing type %q", ErrInvalid, p.ListingType)
	}
	if p.Bedrooms != nil && *p.Bedrooms < 0 {
		return fmt.Errorf("%w: bedrooms must not be negative", ErrInvalid)
	}
	if p.Bathrooms != nil && *p.Bathrooms < 0 {
		return fmt.Errorf("%w: bathrooms must not be negative", ErrInvalid)
	}
	if p.Sqft != nil && *p.Sqft < 0 {
		return fmt.Errorf("%w: sqft must not be negative", ErrInvalid)
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalid)
	}
	p.PropertyType = strings.ToLower(strings.TrimSpace(p.PropertyType))
	p.Features = normalizeTags(p.Features)
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var sqft, yearBuilt sql.NullInt64
	var bedrooms, bathrooms, lat, lng sql.NullFloat64
	var listingType, features, images string

	err := row.Scan(
		&p.ID, &p.Title, &p.Address, &p.City, &p.Price,
		&p.PropertyType, &listingType, &bedrooms, &bathrooms, &sqft,
		&yearBuilt, &features, &p.Description, &images,
		&lat, &lng, &p.Geohash, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ListingType = ListingType(listingType)
	if bedrooms.Valid {
		p.Bedrooms = &bedrooms.Float64
	}
	if bathrooms.Valid {
		p.Bathrooms = &bathrooms.Float64
	}
	if sqft.Valid {
		p.Sqft = &sqft.Int64
	}
	if yearBuilt.Valid {
		p.YearBuilt = &yearBuilt.Int64
	}
	if lat.Valid && lng.Valid {
		p.Latitude = &lat.Float64
		p.Longitude = &lng.Float64
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decoding features: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}

	return &p, nil
}
