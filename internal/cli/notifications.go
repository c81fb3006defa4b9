package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Show alert notifications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifications(unread)
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	return cmd
}

func runNotifications(unread bool) error {
	inbox, err := newAPIClient().Notifications(unread)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(inbox)
	}

	printNotifications(inbox.Notifications)
	fmt.Printf("%d unread\n", inbox.Unread)
	return nil
}
