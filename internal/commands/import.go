package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/importer"
	"github.com/cleared-dev/cartola/internal/logger"
	"github.com/cleared-dev/cartola/internal/model"
)

func newImportCommand() *cobra.Command {
	var scan, keep, noMap bool
	var format string

	cmd := &cobra.Command{
		Use:   "import [file.csv...]",
		Short: "Ingest bank statement CSV files into the ledger",
		Long: `Ingest bank statement CSV files. Rows already in the ledger, rows that
were deleted, and rows matching an existing date/description/amount are
skipped; skipped duplicates are kept in the ignored log.

With --scan, every CSV in the import directory is ingested and then moved
to its processed/ subdirectory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !scan && len(args) == 0 {
				return fmt.Errorf("no files given (use --scan to import the import directory)")
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if format == "" {
				format = a.cfg.Import.Format
			}

			importDir := a.cfg.Import.Dir
			if !filepath.IsAbs(importDir) {
				importDir = filepath.Join(a.dir, importDir)
			}

			type source struct {
				path      string
				processed bool
			}
			var sources []source
			for _, f := range args {
				sources = append(sources, source{path: f})
			}
			if scan {
				files, err := importer.Scan(importDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					sources = append(sources, source{path: f.Path, processed: !keep})
				}
			}
			if len(sources) == 0 {
				warnColor.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", importDir)
				return nil
			}

			reg := importer.DefaultRegistry()
			ctx := cmd.Context()
			var total int
			for _, src := range sources {
				name := filepath.Base(src.path)
				rows, p, err := reg.ParseFile(src.path, format)
				if err != nil {
					return err
				}
				warnUnparsed(a, name, p.Format(), rows)

				if !noMap {
					if rows, err = a.categories.ApplyMapToRows(ctx, rows); err != nil {
						return err
					}
				}

				res, err := a.ledger.Ingest(ctx, rows)
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", name, err)
				}
				total += res.Inserted

				summary := fmt.Sprintf("inserted=%d ignored=%d tombstoned=%d failed=%d",
					res.Inserted, res.Ignored, res.Tombstoned, res.Failed)
				out := cmd.OutOrStdout()
				keyColor.Fprintf(out, "%s", name)
				fmt.Fprintf(out, " (%s): ", p.Format())
				if res.Failed > 0 {
					warnColor.Fprintln(out, summary)
				} else {
					okColor.Fprintln(out, summary)
				}

				a.record(activity.Entry{
					Command: "import",
					Action:  "ingest",
					Details: name + ": " + summary,
					BatchID: res.BatchID,
					Rows:    res.Total(),
				})

				if src.processed {
					if err := importer.MarkProcessed(importDir, name); err != nil {
						return err
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d new transactions\n", total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&scan, "scan", false, "import every CSV in the import directory")
	cmd.Flags().BoolVar(&keep, "keep", false, "with --scan, leave files in place instead of moving them to processed/")
	cmd.Flags().BoolVar(&noMap, "no-map", false, "do not fill categories from the learned category map")
	cmd.Flags().StringVar(&format, "format", "", "statement format (chase, standard); detected from the header when empty")

	return cmd
}

// warnUnparsed logs rows that will be stored with a passthrough date or
// without an amount.
func warnUnparsed(a *app, file, format string, rows []model.Row) {
	log := logger.WithFields(a.log, map[string]any{"file": file, "format": format})
	for i, r := range rows {
		if _, ok := id.ParseDate(id.CanonicalDate(r.Date)); !ok {
			log.Warn().Int("row", i+2).Str("date", r.Date).Msg("unparseable date, keeping raw text")
		}
		if !r.Amount.Valid {
			log.Warn().Int("row", i+2).Msg("unparseable amount, keyed as 0.00")
		}
	}
}
