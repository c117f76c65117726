package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cartola",
		Short:   "Deduplicating bank statement ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("dir", "C", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newListCommand(),
		newEditCommand(),
		newDeleteCommand(),
		newAddCommand(),
		newCategoriesCommand(),
		newSuggestCommand(),
		newIgnoredCommand(),
		newTombstonesCommand(),
		newRepairAmountsCommand(),
		newExportCommand(),
		newActivityCommand(),
	)

	return rootCmd
}
