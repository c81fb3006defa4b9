package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/search"
)

// criteriaFlags binds search criteria to command flags. Shared by search
// and alerts create.
type criteriaFlags struct {
	location     string
	minPrice     int64
	maxPrice     int64
	propertyType string
	minBeds      float64
	minBaths     float64
	minSqft      int64
	maxSqft      int64
	minYear      int64
	maxYear      int64
	features     []string
	listingType  string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.location, "location", "", "city or address substring")
	fs.Int64Var(&f.minPrice, "min-price", 0, "minimum price")
	fs.Int64Var(&f.maxPrice, "max-price", 0, "maximum price")
	fs.StringVar(&f.propertyType, "type", "", "property type (house, condo, ...)")
	fs.Float64Var(&f.minBeds, "min-beds", 0, "minimum bedrooms")
	fs.Float64Var(&f.minBaths, "min-baths", 0, "minimum bathrooms")
	fs.Int64Var(&f.minSqft, "min-sqft", 0, "minimum square feet")
	fs.Int64Var(&f.maxSqft, "max-sqft", 0, "maximum square feet")
	fs.Int64Var(&f.minYear, "min-year", 0, "built in or after year")
	fs.Int64Var(&f.maxYear, "max-year", 0, "built in or before year")
	fs.StringSliceVar(&f.features, "feature", nil, "required feature (repeatable or comma-separated)")
	fs.StringVar(&f.listingType, "listing-type", "", "sale or rent")
}

func (f *criteriaFlags) criteria() (search.Criteria, error) {
	for _, n := range []int64{f.minPrice, f.maxPrice, f.minSqft, f.maxSqft, f.minYear, f.maxYear} {
		if n < 0 {
			return search.Criteria{}, fmt.Errorf("numeric filters must not be negative")
		}
	}
	if f.minBeds < 0 || f.minBaths < 0 {
		return search.Criteria{}, fmt.Errorf("numeric filters must not be negative")
	}
	lt := strings.ToLower(strings.TrimSpace(f.listingType))
	if lt != "" && lt != "sale" && lt != "rent" {
		return search.Criteria{}, fmt.Errorf("invalid listing type: %s (want sale or rent)", f.listingType)
	}

	return search.Criteria{
		Location:     strings.TrimSpace(f.location),
		MinPrice:     f.minPrice,
		MaxPrice:     f.maxPrice,
		PropertyType: strings.TrimSpace(f.propertyType),
		MinBedrooms:  f.minBeds,
		MinBathrooms: f.minBaths,
		MinSqft:      f.minSqft,
		MaxSqft:      f.maxSqft,
		MinYearBuilt: f.minYear,
		MaxYearBuilt: f.maxYear,
		Features:     f.features,
		ListingType:  lt,
	}, nil
}

func newSearchCmd() *cobra.Command {
	var cf criteriaFlags
	var sortKey string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search listings",
		Long:  "Search listings by location, price, size, type and features. Bookmarked listings are marked with *.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cf.criteria()
			if err != nil {
				return err
			}
			key, err := parseSortKey(sortKey)
			if err != nil {
				return err
			}
			return runSearch(c, key)
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVar(&sortKey, "sort", string(search.SortNewest), "sort order (newest|price_asc|price_desc|size_asc|size_desc)")

	return cmd
}

func parseSortKey(s string) (search.SortKey, error) {
	for _, k := range search.SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid sort: %s", s)
}

func runSearch(c search.Criteria, key search.SortKey) error {
	res, err := newAPIClient().Search(c, key)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}

	marked := make(map[int64]bool, len(res.Bookmarked))
	for _, id := range res.Bookmarked {
		marked[id] = true
	}
	return printPropertyTable(res.Properties, marked)
}
