package search

import "github.com/evcraddock/house-market/internal/property"

// Result is the output of the listings pipeline.
type Result struct {
	Properties []*property.Property `json:"properties"`
	Total      int                  `json:"total"`
	// Selected is the still-visible selection, or 0 when the previously
	// selected record dropped out of the result.
	Selected int64 `json:"selected,omitempty"`
}

// Listings filters all records with StrictAll, sorts them by key and
// reconciles the current selection. It does not modify its input.
func Listings(all []*property.Property, c Criteria, key SortKey, selected int64) Result {
	props := Sort(Filter(all, c, StrictAll), key)

	res := Result{Properties: props, Total: len(props)}
	for _, p := range props {
		if p.ID == selected {
			res.Selected = selected
			break
		}
	}
	return res
}
