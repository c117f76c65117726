package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/export"
	"github.com/cleared-dev/cartola/internal/gitops"
)

const defaultExport = "exports/ledger.csv"

func newExportCommand() *cobra.Command {
	var output string
	var commit bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger as CSV",
		Long: `Write the ledger as CSV, by default to exports/ledger.csv in the project.
Use -o - for stdout. The export can be imported again with the standard
format. With --commit (or git.auto_commit), a project that is a git
repository gets the export committed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			txns, err := a.ledger.LoadAll(ctx)
			if err != nil {
				return err
			}

			if output == "-" {
				return export.WriteTransactions(cmd.OutOrStdout(), txns)
			}

			path := output
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.dir, path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating export dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export: %w", err)
			}
			if err := export.WriteTransactions(f, txns); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "exported %d transactions to %s\n", len(txns), path)
			a.record(activity.Entry{Command: "export", Action: "export_csv", Details: path, Rows: len(txns)})

			if !(commit || a.cfg.Git.AutoCommit) {
				return nil
			}
			if !gitops.IsRepo(a.dir) {
				warnColor.Fprintf(cmd.OutOrStdout(), "%s is not a git repository, skipping commit\n", a.dir)
				return nil
			}
			rel, err := filepath.Rel(a.dir, path)
			if err != nil {
				return fmt.Errorf("resolving export path: %w", err)
			}
			author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
			hash, err := gitops.Commit(ctx, a.dir, fmt.Sprintf("export: %d transactions", len(txns)), author,
				rel, filepath.Join("logs", "activity.csv"))
			if errors.Is(err, gitops.ErrNothingToCommit) {
				fmt.Fprintln(cmd.OutOrStdout(), "export unchanged, nothing to commit")
				return nil
			}
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "committed %s\n", hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultExport, "output file, - for stdout")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the export when the project is a git repository")

	return cmd
}
