// Package cli defines the cobra command tree for house-market.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/client"
	"github.com/evcraddock/house-market/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hm",
		Short:         "Browse, list and track homes for sale or rent",
		Long:          "A real-estate marketplace. Run the API server, search listings, save bookmarks, compare homes side by side and get alerts when new listings match a saved search.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for serve (default: $HM_DB_PATH or ~/.house-market/market.db)")

	root.AddCommand(
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newSearchCmd(),
		newShowCmd(),
		newImportCmd(),
		newBookmarksCmd(),
		newAlertsCmd(),
		newCompareCmd(),
		newNotificationsCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag, then path.
func openDB(path string) (*sql.DB, error) {
	if flagDB != "" {
		path = flagDB
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the house-market API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getToken())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
