package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/compare"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
)

var printer = message.NewPrinter(language.English)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(p *property.Property) {
	fmt.Printf("Property #%d\n", p.ID)
	fmt.Printf("  Title:    %s\n", p.Title)
	fmt.Printf("  Address:  %s\n", p.FullAddress())
	fmt.Printf("  Price:    %s\n", formatPrice(p.Price, p.ListingType))
	fmt.Printf("  Listing:  %s\n", p.ListingType)
	if p.PropertyType != "" {
		fmt.Printf("  Type:     %s\n", p.PropertyType)
	}
	if p.Bedrooms != nil {
		fmt.Printf("  Beds:     %g\n", *p.Bedrooms)
	}
	if p.Bathrooms != nil {
		fmt.Printf("  Baths:    %g\n", *p.Bathrooms)
	}
	if p.Sqft != nil {
		fmt.Printf("  Sqft:     %s\n", printer.Sprintf("%d", *p.Sqft))
	}
	if p.YearBuilt != nil {
		fmt.Printf("  Built:    %d\n", *p.YearBuilt)
	}
	if len(p.Features) > 0 {
		fmt.Printf("  Features: %s\n", strings.Join(p.Features, ", "))
	}
	if p.HasLocation() {
		fmt.Printf("  Location: %.5f, %.5f\n", *p.Latitude, *p.Longitude)
	}
	if len(p.Images) > 0 {
		fmt.Printf("  Images:   %d\n", len(p.Images))
	}
	if p.Description != "" {
		fmt.Printf("\n%s\n", p.Description)
	}
}

// printPropertyTable prints a list of properties as a formatted table.
// Rows whose id is in marked get a "*" in the first column.
func printPropertyTable(props []*property.Property, marked map[int64]bool) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, " \tID\tADDRESS\tPRICE\tBED\tBATH\tSQFT\tTYPE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, " \t--\t-------\t-----\t---\t----\t----\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		mark := " "
		if marked[p.ID] {
			mark = "*"
		}
		beds := "-"
		if p.Bedrooms != nil {
			beds = fmt.Sprintf("%g", *p.Bedrooms)
		}
		baths := "-"
		if p.Bathrooms != nil {
			baths = fmt.Sprintf("%g", *p.Bathrooms)
		}
		sqft := "-"
		if p.Sqft != nil {
			sqft = fmt.Sprintf("%d", *p.Sqft)
		}

		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, p.ID, truncate(p.FullAddress(), 40), formatPrice(p.Price, p.ListingType),
			beds, baths, sqft, orDash(p.PropertyType)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// printComparison prints a side-by-side table, one column per property.
func printComparison(t compare.Table) error {
	if len(t.Headers) == 0 {
		fmt.Println("Nothing to compare.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = truncate(h, 30)
	}
	if _, err := fmt.Fprintf(w, "\t%s\n", strings.Join(headers, "\t")); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", row.Label, strings.Join(row.Values, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printAlertTable prints saved searches with their status.
func printAlertTable(alerts []*alert.Alert) error {
	if len(alerts) == 0 {
		fmt.Println("No alerts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tFREQUENCY\tSTATUS\tMATCHES\tLAST CHECKED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, a := range alerts {
		status := "active"
		if !a.Active {
			status = "paused"
		}
		checked := "never"
		if a.LastCheckedAt != nil {
			checked = a.LastCheckedAt.Local().Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, truncate(a.Name, 30), a.Frequency, status, a.MatchCount, checked); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printNotifications prints inbox entries, newest first.
func printNotifications(list []*notify.Notification) {
	if len(list) == 0 {
		fmt.Println("No notifications.")
		return
	}

	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "•"
		}
		fmt.Printf("%s [%s] #%d %s\n", mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.ID, n.Title)
		if n.Body != "" {
			for _, line := range strings.Split(strings.TrimSpace(n.Body), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
		fmt.Println()
	}
}

// formatPrice renders a price with thousands separators. Rentals are
// shown per month.
func formatPrice(price int64, lt property.ListingType) string {
	s := printer.Sprintf("$%d", price)
	if lt == property.ListingRent {
		s += "/mo"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
