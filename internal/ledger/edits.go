package ledger

import (
	"context"
	"fmt"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// ApplyEdits persists a batch of edits, one store transaction per row, and
// returns the number of rows changed. Edits without a key or id, and edits
// for rows that no longer exist, change nothing. Identity columns are never
// touched. Categories outside the active set are stored as Uncategorized.
func (s *Service) ApplyEdits(ctx context.Context, edits []model.Edit) (int, error) {
	active, err := s.activeCategories(ctx)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, e := range edits {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if e.Ref.IsZero() {
			s.log.Debug().Msg("skipping edit without key or id")
			continue
		}

		c, unknown := e.Changes()
		if len(unknown) > 0 {
			s.log.Warn().Str("unique_key", e.Ref.Key).Int64("id", e.Ref.ID).
				Interface("fields", unknown).Msg("ignoring non-editable fields")
		}
		if c.IsEmpty() {
			continue
		}
		if c.Category != nil && active != nil {
			coerced := active.Coerce(*c.Category)
			if coerced != *c.Category {
				s.log.Warn().Str("category", *c.Category).Msg("unknown category, using " + model.Uncategorized)
			}
			c.Category = &coerced
		}

		n, err := s.UpdateOne(ctx, e.Ref, c)
		if err != nil {
			return updated, err
		}
		updated += n
	}
	return updated, nil
}

// UpdateOne applies c to a single row and returns 1 when it exists.
func (s *Service) UpdateOne(ctx context.Context, ref model.Ref, c model.Changes) (int, error) {
	var n int64
	err := s.store.Tx(ctx, func(q store.Queries) error {
		var err error
		n, err = q.UpdateTransaction(ctx, ref, c)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("updating transaction %s: %w", refString(ref), err)
	}
	return int(n), nil
}

// activeCategories returns the active category set, or nil when none has
// been configured yet and every name is accepted.
func (s *Service) activeCategories(ctx context.Context) (*model.CategorySet, error) {
	names, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	set := model.NewCategorySet(names)
	return &set, nil
}

func refString(ref model.Ref) string {
	if ref.Key != "" {
		return ref.Key
	}
	return fmt.Sprintf("#%d", ref.ID)
}
