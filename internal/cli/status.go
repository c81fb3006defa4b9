package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored token is still valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	serverURL := getServerURL()
	token := getToken()

	fmt.Printf("Server:  %s\n", serverURL)

	if token == "" {
		fmt.Println("Token:   not configured")
		fmt.Println("\nRun 'hm login' to authenticate.")
		return nil
	}

	u, err := client.New(serverURL, token).Profile()
	switch {
	case err == nil:
		fmt.Printf("Status:  ✓ signed in as %s\n", u.Email)
	case client.StatusOf(err) == http.StatusUnauthorized:
		fmt.Println("Status:  ✗ token expired or invalid")
		fmt.Println("\nRun 'hm login' to re-authenticate.")
	case client.StatusOf(err) != 0:
		fmt.Printf("Status:  ✗ unexpected response (%d)\n", client.StatusOf(err))
	default:
		fmt.Printf("Status:  ✗ cannot reach server (%v)\n", err)
	}

	return nil
}
