package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a bearer token",
		Long:  "Signs in with email and password and stores the returned bearer token for CLI access. The password is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, email, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if empty)")

	return cmd
}

func runLogin(serverFlag, email string, in io.Reader) error {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}

	reader := bufio.NewReader(in)
	if email == "" {
		fmt.Print("Email: ")
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		email = line
	}
	email = auth.NormalizeEmail(email)
	if err := auth.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %s", email)
	}

	fmt.Print("Password: ")
	password, err := readLine(reader)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("no password provided")
	}

	res, err := client.New(serverURL, "").SignIn(email, password)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.Token = res.Token
	cfg.Email = res.User.Email
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\n✓ Signed in as %s.\n", cfg.Email)
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
