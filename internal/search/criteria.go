// Package search filters, matches and sorts property records. The same
// criteria drive both the listings view and saved alerts, under different
// match policies.
package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Criteria is a set of optional constraints. Zero values are unspecified.
// No min <= max invariant is enforced.
type Criteria struct {
	Location     string   `json:"location,omitempty"`
	MinPrice     int64    `json:"min_price,omitempty"`
	MaxPrice     int64    `json:"max_price,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	MinBedrooms  float64  `json:"min_bedrooms,omitempty"`
	MinBathrooms float64  `json:"min_bathrooms,omitempty"`
	MinSqft      int64    `json:"min_sqft,omitempty"`
	MaxSqft      int64    `json:"max_sqft,omitempty"`
	MinYearBuilt int64    `json:"min_year_built,omitempty"`
	MaxYearBuilt int64    `json:"max_year_built,omitempty"`
	Features     []string `json:"features,omitempty"`
	ListingType  string   `json:"listing_type,omitempty"`
}

// IsEmpty reports whether no constraint is specified.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Location) == "" &&
		c.MinPrice == 0 && c.MaxPrice == 0 &&
		strings.TrimSpace(c.PropertyType) == "" &&
		c.MinBedrooms == 0 && c.MinBathrooms == 0 &&
		c.MinSqft == 0 && c.MaxSqft == 0 &&
		c.MinYearBuilt == 0 && c.MaxYearBuilt == 0 &&
		len(c.features()) == 0 &&
		strings.TrimSpace(c.ListingType) == ""
}

func (c Criteria) features() []string {
	var out []string
	for _, f := range c.Features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Query parameter names shared by the HTTP API and the CLI.
const (
	ParamLocation    = "location"
	ParamMinPrice    = "min_price"
	ParamMaxPrice    = "max_price"
	ParamType        = "type"
	ParamMinBeds     = "min_beds"
	ParamMinBaths    = "min_baths"
	ParamMinSqft     = "min_sqft"
	ParamMaxSqft     = "max_sqft"
	ParamMinYear     = "min_year"
	ParamMaxYear     = "max_year"
	ParamFeatures    = "features"
	ParamListingType = "listing_type"
)

// FromQuery parses criteria from URL query parameters. Features are
// comma-separated. Negative or malformed numbers are rejected.
func FromQuery(q url.Values) (Criteria, error) {
	c := Criteria{
		Location:     strings.TrimSpace(q.Get(ParamLocation)),
		PropertyType: strings.TrimSpace(q.Get(ParamType)),
		ListingType:  strings.TrimSpace(q.Get(ParamListingType)),
	}
	if f := q.Get(ParamFeatures); f != "" {
		for _, tag := range strings.Split(f, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				c.Features = append(c.Features, tag)
			}
		}
	}

	ints := []struct {
		param string
		dst   *int64
	}{
		{ParamMinPrice, &c.MinPrice},
		{ParamMaxPrice, &c.MaxPrice},
		{ParamMinSqft, &c.MinSqft},
		{ParamMaxSqft, &c.MaxSqft},
		{ParamMinYear, &c.MinYearBuilt},
		{ParamMaxYear, &c.MaxYearBuilt},
	}
	for _, f := range ints {
		v := q.Get(f.param)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return Criteria{}, fmt.Errorf("invalid %s: %q", f.param, v)
		}
		*f.dst = n
	}

	floats := []struct {
		param string
		dst   *float64
	}{
		{ParamMinBeds, &c.MinBedrooms},
		{ParamMinBaths, &c.MinBathrooms},
	}
	for _, f := range floats {
		v := q.Get(f.param)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return Criteria{}, fmt.Errorf("invalid %s: %q", f.param, v)
		}
		*f.dst = n
	}

	return c, nil
}

// Query encodes the specified constraints as URL query parameters.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	setStr := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	setInt := func(k string, v int64) {
		if v != 0 {
			q.Set(k, strconv.FormatInt(v, 10))
		}
	}
	setFloat := func(k string, v float64) {
		if v != 0 {
			q.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}

	setStr(ParamLocation, c.Location)
	setInt(ParamMinPrice, c.MinPrice)
	setInt(ParamMaxPrice, c.MaxPrice)
	setStr(ParamType, c.PropertyType)
	setFloat(ParamMinBeds, c.MinBedrooms)
	setFloat(ParamMinBaths, c.MinBathrooms)
	setInt(ParamMinSqft, c.MinSqft)
	setInt(ParamMaxSqft, c.MaxSqft)
	setInt(ParamMinYear, c.MinYearBuilt)
	setInt(ParamMaxYear, c.MaxYearBuilt)
	setStr(ParamFeatures, strings.Join(c.features(), ","))
	setStr(ParamListingType, c.ListingType)
	return q
}
