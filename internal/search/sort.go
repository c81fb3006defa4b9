package search

import (
	"sort"

	"github.com/evcraddock/house-market/internal/property"
)

// SortKey names a listing order.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortSizeAsc   SortKey = "size_asc"
	SortSizeDesc  SortKey = "size_desc"
)

// SortKeys lists the accepted keys in display order.
var SortKeys = []SortKey{SortNewest, SortPriceAsc, SortPriceDesc, SortSizeAsc, SortSizeDesc}

// ParseSortKey maps a string to a key. Unknown values fall back to newest.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return SortNewest
}

// Sort returns a sorted copy of props. Newest keeps the input order, which
// the repository already returns newest first. Unknown sizes sort as 0.
func Sort(props []*property.Property, key SortKey) []*property.Property {
	out := make([]*property.Property, len(props))
	copy(out, props)

	var less func(a, b *property.Property) bool
	switch ParseSortKey(string(key)) {
	case SortPriceAsc:
		less = func(a, b *property.Property) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b *property.Property) bool { return a.Price > b.Price }
	case SortSizeAsc:
		less = func(a, b *property.Property) bool { return a.Size() < b.Size() }
	case SortSizeDesc:
		less = func(a, b *property.Property) bool { return a.Size() > b.Size() }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
