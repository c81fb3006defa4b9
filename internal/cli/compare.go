package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/client"
)

func newCompareCmd() *cobra.Command {
	var clearFirst bool
	var remove []int64

	cmd := &cobra.Command{
		Use:   "compare [property-id...]",
		Short: "Compare listings side by side",
		Long: `Add listings to your comparison and print it side by side. At most four
listings can be compared at once. With no ids, prints the current comparison.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return runCompare(newAPIClient(), ids, remove, clearFirst)
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "empty the comparison first")
	cmd.Flags().Int64SliceVar(&remove, "remove", nil, "property id to remove (repeatable)")

	return cmd
}

func runCompare(c *client.Client, add, remove []int64, clearFirst bool) error {
	if clearFirst {
		if err := c.ClearComparison(); err != nil {
			return err
		}
	}
	for _, id := range remove {
		if _, err := c.RemoveFromComparison(id); err != nil {
			return fmt.Errorf("removing #%d: %w", id, err)
		}
	}
	for _, id := range add {
		if _, err := c.AddToComparison(id); err != nil {
			return fmt.Errorf("adding #%d: %w", id, err)
		}
	}

	cmp, err := c.Comparison()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmp)
	}
	return printComparison(cmp.Table)
}
