package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/categories"
	"github.com/cleared-dev/cartola/internal/config"
	"github.com/cleared-dev/cartola/internal/gitops"
	"github.com/cleared-dev/cartola/internal/ledger"
	"github.com/cleared-dev/cartola/internal/logger"
	"github.com/cleared-dev/cartola/internal/store/backend"
)

func newInitCommand() *cobra.Command {
	var useGit bool
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cartola project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if filepath.IsAbs(args[0]) {
					dir = args[0]
				} else {
					dir = filepath.Join(dir, args[0])
				}
			}
			return runInit(cmd.Context(), cmd.OutOrStdout(), dir, driver, useGit)
		},
	}

	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit the project files")
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "store driver (sqlite or postgres)")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir, driver string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Store.Driver = driver
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && driver == "postgres" {
		cfg.Store.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, d := range []string{
		"logs",
		"exports",
		cfg.Import.Dir,
		filepath.Join(cfg.Import.Dir, "processed"),
	} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Statements and the database hold account data; only config, exports
	// and the activity log are versioned.
	gitignore := fmt.Sprintf("%s\n%s-wal\n%s-shm\n%s/\n", cfg.Store.Path, cfg.Store.Path, cfg.Store.Path, cfg.Import.Dir)
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	s, err := backend.Open(ctx, cfg.Store, dir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	log := logger.FromContext(ctx)
	cats := categories.NewService(s, ledger.NewService(s, log), log, cfg.Suggestions.DominantShare)
	seeded, err := cats.Seed(ctx, cfg.Categories.Defaults)
	if err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	msg := fmt.Sprintf("Initialized cartola project at %s", dir)
	if seeded {
		msg += fmt.Sprintf(" with %d categories", len(cfg.Categories.Defaults))
	}

	if useGit {
		if !gitops.IsRepo(dir) {
			if err := gitops.Init(ctx, dir); err != nil {
				return err
			}
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		hash, err := gitops.Commit(ctx, dir, "init: cartola project", author, config.FileName, ".gitignore")
		if err != nil && !errors.Is(err, gitops.ErrNothingToCommit) {
			return fmt.Errorf("initial commit: %w", err)
		}
		if hash != "" {
			msg += fmt.Sprintf(" (%s)", hash)
		}
	}

	okColor.Fprintln(out, msg)
	return nil
}
