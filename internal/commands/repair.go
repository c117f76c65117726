package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
)

func newRepairAmountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-amounts",
		Short: "Align display amounts with corrected amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.RepairAmounts(cmd.Context())
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d amounts repaired\n", n)
			a.record(activity.Entry{Command: "repair-amounts", Action: "repair_amounts", Rows: n})
			return nil
		},
	}
}
