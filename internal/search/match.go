package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/evcraddock/house-market/internal/property"
)

// Policy selects how criteria are combined.
type Policy int

const (
	// StrictAll requires every specified constraint. A specified bound
	// against an unknown field is not satisfied. Used by listings.
	StrictAll Policy = iota
	// HardPlusThreshold requires location and price, plus at least
	// SoftThreshold of the six soft criteria. Unknown numeric fields
	// count as 0. Used by alerts.
	HardPlusThreshold
)

// SoftThreshold is the number of soft criteria an alert match needs.
const SoftThreshold = 3

func (p Policy) String() string {
	switch p {
	case StrictAll:
		return "strict_all"
	case HardPlusThreshold:
		return "hard_plus_threshold"
	}
	return "unknown"
}

// Matches reports whether p satisfies c under the given policy.
func Matches(p *property.Property, c Criteria, policy Policy) bool {
	if policy == HardPlusThreshold {
		return matchThreshold(p, c)
	}
	return matchStrict(p, c)
}

// Filter returns the records matching c, preserving input order.
func Filter(props []*property.Property, c Criteria, policy Policy) []*property.Property {
	out := make([]*property.Property, 0, len(props))
	for _, p := range props {
		if Matches(p, c, policy) {
			out = append(out, p)
		}
	}
	return out
}

// Count returns how many records match c.
func Count(props []*property.Property, c Criteria, policy Policy) int {
	n := 0
	for _, p := range props {
		if Matches(p, c, policy) {
			n++
		}
	}
	return n
}

func matchStrict(p *property.Property, c Criteria) bool {
	if loc := strings.TrimSpace(c.Location); loc != "" {
		if !contains(p.Address, loc) && !contains(p.City, loc) {
			return false
		}
	}
	if c.MinPrice != 0 && p.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice != 0 && p.Price > c.MaxPrice {
		return false
	}
	if t := strings.TrimSpace(c.PropertyType); t != "" && !equalFold(p.PropertyType, t) {
		return false
	}
	if c.MinBedrooms != 0 && (p.Bedrooms == nil || *p.Bedrooms < c.MinBedrooms) {
		return false
	}
	if c.MinBathrooms != 0 && (p.Bathrooms == nil || *p.Bathrooms < c.MinBathrooms) {
		return false
	}
	if !inRangeKnown(p.Sqft, c.MinSqft, c.MaxSqft) {
		return false
	}
	if !inRangeKnown(p.YearBuilt, c.MinYearBuilt, c.MaxYearBuilt) {
		return false
	}
	if !hasFeatures(p.Features, c.features()) {
		return false
	}
	if lt := strings.TrimSpace(c.ListingType); lt != "" && !equalFold(string(p.ListingType), lt) {
		return false
	}
	return true
}

func matchThreshold(p *property.Property, c Criteria) bool {
	if loc := strings.TrimSpace(c.Location); loc != "" {
		if strings.TrimSpace(p.Address) == "" {
			return false
		}
		if !contains(p.Address, loc) && !contains(p.City, loc) {
			return false
		}
	}
	if c.MinPrice != 0 && p.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice != 0 && p.Price > c.MaxPrice {
		return false
	}

	return SoftScore(p, c) >= SoftThreshold
}

// SoftScore counts the soft criteria p satisfies: property type, min
// bedrooms, min bathrooms, sqft range, year-built range and features.
// Unspecified criteria count as satisfied.
func SoftScore(p *property.Property, c Criteria) int {
	checks := []bool{
		strings.TrimSpace(c.PropertyType) == "" || equalFold(p.PropertyType, strings.TrimSpace(c.PropertyType)),
		c.MinBedrooms == 0 || floatOrZero(p.Bedrooms) >= c.MinBedrooms,
		c.MinBathrooms == 0 || floatOrZero(p.Bathrooms) >= c.MinBathrooms,
		inRange(intOrZero(p.Sqft), c.MinSqft, c.MaxSqft),
		inRange(intOrZero(p.YearBuilt), c.MinYearBuilt, c.MaxYearBuilt),
		hasFeatures(p.Features, c.features()),
	}
	n := 0
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return n
}

func inRange(v, lo, hi int64) bool {
	return (lo == 0 || v >= lo) && (hi == 0 || v <= hi)
}

func inRangeKnown(v *int64, lo, hi int64) bool {
	if lo == 0 && hi == 0 {
		return true
	}
	if v == nil {
		return false
	}
	return inRange(*v, lo, hi)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func hasFeatures(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if equalFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// fold applies Unicode case folding. Casers are stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func contains(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

func equalFold(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(b)
}
