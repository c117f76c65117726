package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/categories"
	"github.com/cleared-dev/cartola/internal/model"
)

func newSuggestCommand() *cobra.Command {
	var apply, acceptAll bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest categories for uncategorized transactions",
		Long: `Suggest a category for every uncategorized transaction, from the learned
category map (confidence 1.0) or from a dominant category in the ledger
history (confidence 0.8).

--apply accepts the suggestions at or above suggestions.auto_apply;
--accept-all accepts every suggestion that has a source. Accepted categories
are learned into the category map.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			threshold := a.cfg.Suggestions.AutoApply
			if threshold <= 0 {
				threshold = categories.DefaultAutoApply
			}

			txns, err := a.ledger.LoadAll(ctx)
			if err != nil {
				return err
			}
			sugs, err := a.categories.Suggest(ctx, txns)
			if err != nil {
				return err
			}
			for _, sg := range sugs {
				printSuggestion(out, sg, threshold)
			}
			fmt.Fprintf(out, "%d uncategorized transactions\n", len(sugs))

			var accept []model.Suggestion
			switch {
			case acceptAll:
				accept = sugs
			case apply:
				accept = categories.AutoApplicable(sugs, threshold)
			default:
				return nil
			}

			n, err := a.categories.AcceptSuggestions(ctx, accept)
			if err != nil {
				return err
			}
			okColor.Fprintf(out, "%d transactions categorized\n", n)
			a.record(activity.Entry{Command: "suggest", Action: "accept_suggestions", Rows: n})
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "accept suggestions at or above the auto-apply confidence")
	cmd.Flags().BoolVar(&acceptAll, "accept-all", false, "accept every suggestion with a source")

	return cmd
}
