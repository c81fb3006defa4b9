package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/alert"
)

func newAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage saved-search alerts",
		Long:  "List, create, pause, check and delete saved searches that notify you about new matching listings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlertsList()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List alerts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAlertsList()
			},
		},
		newAlertsCreateCmd(),
		alertIDCmd("toggle", "Pause or resume an alert", runAlertToggle),
		alertIDCmd("check", "Re-check an alert now", runAlertCheck),
		alertIDCmd("matches", "List listings an alert currently matches", runAlertMatches),
		alertIDCmd("delete", "Delete an alert", runAlertDelete),
	)

	return cmd
}

func alertIDCmd(use, short string, run func(id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <alert-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return run(id)
		},
	}
}

func newAlertsCreateCmd() *cobra.Command {
	var cf criteriaFlags
	var frequency string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Save a search as an alert",
		Long:  "Save a search as an alert. Immediate alerts are checked right away and then on a short interval; daily and weekly alerts are checked on their schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !alert.ValidFrequency(frequency) {
				return fmt.Errorf("invalid frequency: %s (want immediate, daily or weekly)", frequency)
			}
			c, err := cf.criteria()
			if err != nil {
				return err
			}
			a, err := newAPIClient().CreateAlert(args[0], alert.Frequency(frequency), c)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(a)
			}
			fmt.Printf("✓ Alert #%d %q created (%s, %d current matches).\n", a.ID, a.Name, a.Frequency, a.MatchCount)
			return nil
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVar(&frequency, "frequency", string(alert.FrequencyImmediate), "check frequency (immediate|daily|weekly)")

	return cmd
}

func runAlertsList() error {
	list, err := newAPIClient().Alerts()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(list)
	}
	return printAlertTable(list)
}

func runAlertToggle(id int64) error {
	a, err := newAPIClient().ToggleAlert(id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(a)
	}
	if a.Active {
		fmt.Printf("✓ Alert #%d resumed.\n", a.ID)
	} else {
		fmt.Printf("✓ Alert #%d paused.\n", a.ID)
	}
	return nil
}

func runAlertCheck(id int64) error {
	res, err := newAPIClient().CheckAlert(id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(res)
	}
	fmt.Printf("Alert #%d: %d matches (was %d).\n", res.AlertID, res.Matches, res.Previous)
	if res.Notified {
		fmt.Println("Notification sent.")
		for _, o := range res.Outcomes {
			fmt.Printf("  %-6s %s\n", o.Channel, o.Status)
		}
	}
	return nil
}

func runAlertMatches(id int64) error {
	m, err := newAPIClient().AlertMatches(id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(m)
	}
	return printPropertyTable(m.Properties, nil)
}

func runAlertDelete(id int64) error {
	if err := newAPIClient().DeleteAlert(id); err != nil {
		return err
	}
	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "deleted": true})
	}
	fmt.Printf("✓ Alert #%d deleted.\n", id)
	return nil
}
