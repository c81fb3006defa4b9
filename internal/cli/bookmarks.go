package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List and manage bookmarked listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookmarksList()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List bookmarked listings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBookmarksList()
			},
		},
		&cobra.Command{
			Use:   "add <property-id>",
			Short: "Bookmark a listing",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				b, err := newAPIClient().AddBookmark(id)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(b)
				}
				fmt.Printf("✓ Bookmarked property #%d.\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <property-id>",
			Short: "Remove a bookmark",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := newAPIClient().RemoveBookmark(id); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(map[string]interface{}{"property_id": id, "removed": true})
				}
				fmt.Printf("✓ Removed bookmark for property #%d.\n", id)
				return nil
			},
		},
	)

	return cmd
}

func runBookmarksList() error {
	list, err := newAPIClient().Bookmarks()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(list)
	}

	if len(list) == 0 {
		fmt.Println("No bookmarks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tADDRESS\tPRICE\tSAVED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, b := range list {
		addr, price := "(removed)", "-"
		if b.Property != nil {
			addr = truncate(b.Property.FullAddress(), 40)
			price = formatPrice(b.Property.Price, b.Property.ListingType)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			b.PropertyID, addr, price, b.SavedAt.Local().Format("2006-01-02")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}
