package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cartola/internal/activity"
	"github.com/cleared-dev/cartola/internal/categories"
	"github.com/cleared-dev/cartola/internal/config"
	"github.com/cleared-dev/cartola/internal/ledger"
	"github.com/cleared-dev/cartola/internal/logger"
	"github.com/cleared-dev/cartola/internal/store"
	"github.com/cleared-dev/cartola/internal/store/backend"
)

// app is everything a project command needs, opened from --dir.
type app struct {
	dir        string
	cfg        *config.Config
	log        zerolog.Logger
	store      store.Store
	ledger     *ledger.Service
	categories *categories.Service
}

func projectDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	dir, err := projectDir(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading project at %s (run `cartola init` first?): %w", dir, err)
	}

	log, err := logger.Configure(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("command", cmd.CommandPath()).Logger()
	cmd.SetContext(logger.WithContext(cmd.Context(), log))

	s, err := backend.Open(cmd.Context(), cfg.Store, dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	l := ledger.NewService(s, log)
	return &app{
		dir:        dir,
		cfg:        cfg,
		log:        log,
		store:      s,
		ledger:     l,
		categories: categories.NewService(s, l, log, cfg.Suggestions.DominantShare),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing store")
	}
}

// record appends to the activity log. A failure is logged, not returned:
// the ledger change it describes has already been committed.
func (a *app) record(e activity.Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := activity.Append(a.dir, []activity.Entry{e}); err != nil {
		a.log.Warn().Err(err).Msg("writing activity log")
	}
}
