package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/id"
)

func newDeleteCommand() *cobra.Command {
	var keys []string
	var ids []int64

	cmd := &cobra.Command{
		Use:   "delete --key KEY|--id ID...",
		Short: "Delete transactions and keep them from being imported again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keys) == 0 && len(ids) == 0 {
				return errors.New("at least one --key or --id is required")
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, k := range keys {
				if !id.IsStatementKey(k) && !id.IsManualKey(k) {
					a.log.Warn().Str("unique_key", k).Msg("key is not in the k: or m: format, tombstoning it as given")
				}
			}

			n, err := a.ledger.Delete(cmd.Context(), keys, ids)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d transactions deleted\n", n)

			a.record(activity.Entry{
				Command: "delete",
				Action:  "tombstone",
				Details: fmt.Sprintf("keys=%v ids=%v", keys, ids),
				Rows:    n,
			})
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keys, "key", nil, "unique key to delete (repeatable)")
	cmd.Flags().Int64SliceVar(&ids, "id", nil, "id to delete (repeatable)")

	return cmd
}
