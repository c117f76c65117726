package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/model"
)

func newListCommand() *cobra.Command {
	var uncategorized bool
	var category, search string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger transactions by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			txns, err := a.ledger.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			set, err := a.categories.Set(cmd.Context())
			if err != nil {
				return err
			}

			search = strings.ToUpper(search)
			var shown []model.Transaction
			for _, t := range txns {
				if uncategorized && set.Coerce(t.Category) != model.Uncategorized {
					continue
				}
				if category != "" && t.Category != category {
					continue
				}
				if search != "" && !strings.Contains(t.DescriptionNorm, search) {
					continue
				}
				shown = append(shown, t)
			}
			if limit > 0 && len(shown) > limit {
				shown = shown[len(shown)-limit:]
			}

			out := cmd.OutOrStdout()
			for _, t := range shown {
				printTransaction(out, t)
			}
			fmt.Fprintf(out, "%d of %d transactions\n", len(shown), len(txns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only rows without an active category")
	cmd.Flags().StringVar(&category, "category", "", "only rows in this category")
	cmd.Flags().StringVar(&search, "search", "", "only rows whose normalized description contains this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the most recent N rows")

	return cmd
}
