package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
)

func newTombstonesCommand() *cobra.Command {
	tCmd := &cobra.Command{
		Use:   "tombstones",
		Short: "Inspect and clear the keys of deleted transactions",
	}
	tCmd.AddCommand(newTombstonesListCommand(), newTombstonesClearCommand())
	return tCmd
}

func newTombstonesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tombstoned keys, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ts, err := a.ledger.ListTombstones(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range ts {
				keyColor.Fprintf(out, "%-18s", t.UniqueKey)
				fmt.Fprintf(out, " deleted %s\n", t.DeletedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "%d tombstones\n", len(ts))
			return nil
		},
	}
}

func newTombstonesClearCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [key...]",
		Short: "Allow deleted keys to be imported again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("give keys to clear or --all")
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.ClearTombstones(cmd.Context(), args)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d tombstones cleared\n", n)
			a.record(activity.Entry{Command: "tombstones clear", Action: "clear_tombstones", Details: strings.Join(args, ";"), Rows: n})
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every tombstone")
	return cmd
}
