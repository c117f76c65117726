package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
)

func newActivityCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log of ledger changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			entries, err := activity.Read(dir)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				dateColor.Fprintf(out, " %s ", e.Timestamp.Local().Format(time.DateTime))
				keyColor.Fprintf(out, " %-18s", e.Command)
				fmt.Fprintf(out, " %-20s %5d  %s\n", e.Action, e.Rows, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "show only the most recent N entries (0 for all)")
	return cmd
}
