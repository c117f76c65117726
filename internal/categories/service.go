// Package categories manages the active category set, the learned
// description→category map and category suggestions.
package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/cartola/internal/ledger"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// ErrSentinel is returned when an operation would remove the Uncategorized
// category.
var ErrSentinel = errors.New("the " + model.Uncategorized + " category cannot be removed")

// DefaultDominantShare is the minimum share of history a category needs to
// be suggested for a description.
const DefaultDominantShare = 0.70

// Service manages categories over a store.
type Service struct {
	store         store.Store
	ledger        *ledger.Service
	log           zerolog.Logger
	dominantShare float64
}

// NewService creates a Service. A dominantShare of zero uses DefaultDominantShare.
func NewService(s store.Store, l *ledger.Service, log zerolog.Logger, dominantShare float64) *Service {
	if dominantShare <= 0 {
		dominantShare = DefaultDominantShare
	}
	return &Service{
		store:         s,
		ledger:        l,
		log:           log.With().Str("component", "categories").Logger(),
		dominantShare: dominantShare,
	}
}

// Set returns the active category set.
func (s *Service) Set(ctx context.Context) (model.CategorySet, error) {
	names, err := s.store.ListCategories(ctx)
	if err != nil {
		return model.CategorySet{}, fmt.Errorf("loading categories: %w", err)
	}
	return model.NewCategorySet(names), nil
}

// List returns the active categories, Uncategorized first, then alphabetical.
func (s *Service) List(ctx context.Context) ([]string, error) {
	set, err := s.Set(ctx)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}

// Replace swaps the whole category set. Names are trimmed and deduplicated
// and Uncategorized is always kept. Ledger rows are not touched; rows whose
// category drops out of the set read as Uncategorized from then on.
func (s *Service) Replace(ctx context.Context, names []string) ([]string, error) {
	set := model.NewCategorySet(names)
	err := s.store.Tx(ctx, func(q store.Queries) error {
		return q.ReplaceCategories(ctx, set.Names())
	})
	if err != nil {
		return nil, fmt.Errorf("replacing categories: %w", err)
	}
	s.log.Info().Int("count", len(set.Names())).Msg("replaced categories")
	return set.Names(), nil
}

// Add adds a category. Adding an existing name is a no-op.
func (s *Service) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("category name is required")
	}
	return s.modify(ctx, func(names []string) []string {
		return append(names, name)
	})
}

// Remove drops a category from the active set. Rows keep their stored
// category text.
func (s *Service) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == model.Uncategorized {
		return ErrSentinel
	}
	return s.modify(ctx, func(names []string) []string {
		out := names[:0]
		for _, n := range names {
			if n != name {
				out = append(out, n)
			}
		}
		return out
	})
}

func (s *Service) modify(ctx context.Context, fn func([]string) []string) error {
	err := s.store.Tx(ctx, func(q store.Queries) error {
		names, err := q.ListCategories(ctx)
		if err != nil {
			return err
		}
		set := model.NewCategorySet(fn(names))
		return q.ReplaceCategories(ctx, set.Names())
	})
	if err != nil {
		return fmt.Errorf("updating categories: %w", err)
	}
	return nil
}

// Rename renames a category everywhere it appears: the active set, ledger
// rows and the category map, in one transaction. It does nothing when
// either name is empty, the names are equal, or oldName is Uncategorized.
func (s *Service) Rename(ctx context.Context, oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" || oldName == newName || oldName == model.Uncategorized {
		return nil
	}

	err := s.store.Tx(ctx, func(q store.Queries) error {
		return q.RenameCategory(ctx, oldName, newName)
	})
	if err != nil {
		return fmt.Errorf("renaming category: %w", err)
	}
	s.log.Info().Str("from", oldName).Str("to", newName).Msg("renamed category")
	return nil
}

// Seed installs defaults when no category exists yet and reports whether
// it did.
func (s *Service) Seed(ctx context.Context, defaults []string) (bool, error) {
	names, err := s.store.ListCategories(ctx)
	if err != nil {
		return false, fmt.Errorf("loading categories: %w", err)
	}
	if len(names) > 0 {
		return false, nil
	}
	if _, err := s.Replace(ctx, defaults); err != nil {
		return false, err
	}
	return true, nil
}
