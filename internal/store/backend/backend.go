// Package backend opens the store selected by a project's configuration.
package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/cartola/internal/config"
	"github.com/cleared-dev/cartola/internal/store"
	"github.com/cleared-dev/cartola/internal/store/postgres"
	"github.com/cleared-dev/cartola/internal/store/sqlite"
)

// Open connects to the configured store and migrates it. A relative sqlite
// path is resolved against projectDir.
func Open(ctx context.Context, cfg config.StoreConfig, projectDir string) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		s, err = sqlite.Open(path)
	case "postgres":
		s, err = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
