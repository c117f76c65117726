package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

func newEditCommand() *cobra.Command {
	var keys []string
	var ids []int64
	var sets []string
	var dryRun, noLearn bool

	cmd := &cobra.Command{
		Use:   "edit --key KEY|--id ID --set field=value...",
		Short: "Edit the category, note, corrected amount or flags of transactions",
		Long: `Edit transactions addressed by unique key or id. Editable fields are
category, user_note, amount_corrected, is_expense and is_transfer. Categories
outside the active set are stored as Uncategorized. Category edits are
learned into the category map unless --no-learn is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keys) == 0 && len(ids) == 0 {
				return errors.New("at least one --key or --id is required")
			}
			if len(sets) == 0 {
				return errors.New("at least one --set field=value is required")
			}

			pending := model.NewPendingEdits()
			var refs []model.Ref
			for _, k := range keys {
				refs = append(refs, model.Ref{Key: k})
			}
			for _, id := range ids {
				refs = append(refs, model.Ref{ID: id})
			}
			for _, s := range sets {
				field, value, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, want field=value", s)
				}
				for _, ref := range refs {
					pending.Set(ref, model.Field(strings.TrimSpace(field)), value)
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if dryRun {
				var rows []model.Transaction
				for _, ref := range refs {
					t, err := a.ledger.Get(ctx, ref)
					if errors.Is(err, store.ErrNotFound) {
						warnColor.Fprintf(out, "not found: %s\n", refLabel(ref))
						continue
					}
					if err != nil {
						return err
					}
					rows = append(rows, t)
				}
				for _, t := range pending.Overlay(rows) {
					printTransaction(out, t)
				}
				fmt.Fprintf(out, "dry run: %d transactions would be edited (%d pending)\n", len(rows), pending.Len())
				return nil
			}

			n, err := a.ledger.ApplyEdits(ctx, pending.Edits())
			if err != nil {
				return err
			}
			okColor.Fprintf(out, "%d transactions updated\n", n)

			a.record(activity.Entry{
				Command: "edit",
				Action:  "apply_edits",
				Details: strings.Join(sets, " "),
				Rows:    n,
			})

			if noLearn || !touchesCategory(sets) {
				return nil
			}
			var edited []model.Transaction
			for _, ref := range refs {
				t, err := a.ledger.Get(ctx, ref)
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				edited = append(edited, t)
			}
			learned, err := a.categories.Learn(ctx, edited)
			if err != nil {
				return err
			}
			if learned > 0 {
				fmt.Fprintf(out, "learned %d category mappings\n", learned)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keys, "key", nil, "unique key of a transaction (repeatable)")
	cmd.Flags().Int64SliceVar(&ids, "id", nil, "id of a transaction (repeatable)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value to set (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the edited rows without saving")
	cmd.Flags().BoolVar(&noLearn, "no-learn", false, "do not learn category edits into the category map")

	return cmd
}

func touchesCategory(sets []string) bool {
	for _, s := range sets {
		if field, _, _ := strings.Cut(s, "="); strings.TrimSpace(field) == string(model.FieldCategory) {
			return true
		}
	}
	return false
}

func refLabel(ref model.Ref) string {
	if ref.Key != "" {
		return ref.Key
	}
	return fmt.Sprintf("#%d", ref.ID)
}
