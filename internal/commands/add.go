package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/ledger"
)

func newAddCommand() *cobra.Command {
	var e ledger.ManualEntry
	var amount string

	cmd := &cobra.Command{
		Use:   "add --description TEXT --amount N",
		Short: "Record a cash or other manual expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", amount, err)
			}
			e.Amount = amt

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.ledger.AddManual(cmd.Context(), e)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), t)

			a.record(activity.Entry{
				Command: "add",
				Action:  "manual_entry",
				Details: t.UniqueKey,
				Rows:    1,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&e.Date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&e.Description, "description", "", "description (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount spent, positive (required)")
	cmd.Flags().StringVar(&e.Category, "category", "", "category")
	cmd.Flags().StringVar(&e.UserNote, "note", "", "note")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
