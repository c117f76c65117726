package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
)

func newCategoriesCommand() *cobra.Command {
	catCmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the active categories and the learned category map",
	}
	catCmd.AddCommand(
		newCategoriesListCommand(),
		newCategoriesReplaceCommand(),
		newCategoriesAddCommand(),
		newCategoriesRemoveCommand(),
		newCategoriesRenameCommand(),
		newCategoriesLearnCommand(),
		newCategoriesMapCommand(),
	)
	return catCmd
}

func newCategoriesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the active categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.categories.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newCategoriesReplaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replace <name>...",
		Short: "Replace the whole category set",
		Long: `Replace the whole category set. Uncategorized is always kept. Ledger rows
are not rewritten; rows whose category is no longer active read as
Uncategorized.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.categories.Replace(cmd.Context(), args)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d categories: %s\n", len(names), strings.Join(names, ", "))
			a.record(activity.Entry{Command: "categories replace", Action: "replace_categories", Details: strings.Join(names, ";"), Rows: len(names)})
			return nil
		},
	}
}

func newCategoriesAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.categories.Add(cmd.Context(), args[0]); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "added %s\n", args[0])
			a.record(activity.Entry{Command: "categories add", Action: "add_category", Details: args[0]})
			return nil
		},
	}
}

func newCategoriesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category from the active set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.categories.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			a.record(activity.Entry{Command: "categories remove", Action: "remove_category", Details: args[0]})
			return nil
		},
	}
}

func newCategoriesRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category in the set, the ledger and the category map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.categories.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[0], args[1])
			a.record(activity.Entry{Command: "categories rename", Action: "rename_category", Details: args[0] + " -> " + args[1]})
			return nil
		},
	}
}

func newCategoriesLearnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "learn",
		Short: "Learn the category map from every categorized ledger row",
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
			n, err := a.categories.Learn(cmd.Context(), txns)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "learned %d category mappings\n", n)
			a.record(activity.Entry{Command: "categories learn", Action: "learn_category_map", Rows: n})
			return nil
		},
	}
}

func newCategoriesMapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the learned description to category map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.ListCategoryMap(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%-*s ", descWidth, truncate(e.DescriptionNorm, descWidth))
				catColor.Fprintf(out, " %s ", e.Category)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
