package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/ledger"
)

func newIgnoredCommand() *cobra.Command {
	ignCmd := &cobra.Command{
		Use:   "ignored",
		Short: "Inspect and restore rows skipped as duplicates at import",
	}
	ignCmd.AddCommand(newIgnoredListCommand(), newIgnoredRestoreCommand(), newIgnoredClearCommand())
	return ignCmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newIgnoredListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ignored duplicates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.ledger.ListIgnored(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%5d %s ", e.ID, e.CreatedAt.Local().Format(time.DateTime))
				t, err := ledger.DecodeIgnored(e)
				if err != nil {
					warnColor.Fprintf(out, "%s %v\n", e.UniqueKey, err)
					continue
				}
				printTransaction(out, t)
			}
			fmt.Fprintf(out, "%d ignored duplicates\n", len(entries))
			return nil
		},
	}
}

func newIgnoredRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Restore ignored rows into the ledger",
		Long: `Restore ignored rows into the ledger. A ledger row with the same key is
replaced, the key's tombstone is cleared and the entry leaves the log.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.RestoreIgnored(cmd.Context(), ids)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d rows restored\n", n)
			a.record(activity.Entry{Command: "ignored restore", Action: "restore_ignored", Details: fmt.Sprint(ids), Rows: n})
			return nil
		},
	}
}

func newIgnoredClearCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [id...]",
		Short: "Remove entries from the ignored log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("give ids to clear or --all")
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.ClearIgnored(cmd.Context(), ids)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d entries cleared\n", n)
			a.record(activity.Entry{Command: "ignored clear", Action: "clear_ignored", Details: fmt.Sprint(ids), Rows: n})
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear the whole log")
	return cmd
}
