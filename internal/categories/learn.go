package categories

import (
	"context"
	"fmt"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/normalize"
	"github.com/cleared-dev/cartola/internal/store"
)

func normOf(t model.Transaction) string {
	if t.DescriptionNorm != "" {
		return t.DescriptionNorm
	}
	return normalize.Description(t.Description)
}

// Learn records the category of each row in the category map, one entry per
// normalized description; the last row wins when a description repeats.
// Categories outside the active set count as Uncategorized, and
// Uncategorized rows are skipped. It returns the number of entries written.
func (s *Service) Learn(ctx context.Context, rows []model.Transaction) (int, error) {
	set, err := s.Set(ctx)
	if err != nil {
		return 0, err
	}

	var order []string
	latest := make(map[string]string)
	for _, r := range rows {
		norm := normOf(r)
		cat := set.Coerce(r.Category)
		if norm == "" || cat == model.Uncategorized {
			continue
		}
		if _, seen := latest[norm]; !seen {
			order = append(order, norm)
		}
		latest[norm] = cat
	}
	if len(order) == 0 {
		return 0, nil
	}

	entries := make([]model.CategoryMapEntry, 0, len(order))
	for _, norm := range order {
		entries = append(entries, model.CategoryMapEntry{DescriptionNorm: norm, Category: latest[norm]})
	}

	var n int64
	err = s.store.Tx(ctx, func(q store.Queries) error {
		var err error
		n, err = q.UpsertCategoryMap(ctx, entries)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("learning category map: %w", err)
	}
	s.log.Info().Int64("learned", n).Msg("learned category map")
	return int(n), nil
}

// ApplyMap fills in the category of every uncategorized row whose
// description has a learned, still active category. It returns a new slice.
func (s *Service) ApplyMap(ctx context.Context, rows []model.Transaction) ([]model.Transaction, error) {
	set, err := s.Set(ctx)
	if err != nil {
		return nil, err
	}

	norms := distinctNorms(rows, set)
	out := append([]model.Transaction(nil), rows...)
	if len(norms) == 0 {
		return out, nil
	}

	mapped, err := s.store.LookupCategoryMap(ctx, norms)
	if err != nil {
		return nil, fmt.Errorf("looking up category map: %w", err)
	}
	for i := range out {
		if set.Coerce(out[i].Category) != model.Uncategorized {
			continue
		}
		if cat, ok := mapped[normOf(out[i])]; ok && set.Contains(cat) && cat != model.Uncategorized {
			out[i].Category = cat
		}
	}
	return out, nil
}

// ApplyMapToRows is ApplyMap for incoming rows before ingestion.
func (s *Service) ApplyMapToRows(ctx context.Context, rows []model.Row) ([]model.Row, error) {
	txns := make([]model.Transaction, len(rows))
	for i, r := range rows {
		txns[i] = model.Transaction{Description: r.Description, DescriptionNorm: normalize.Description(r.DescriptionNorm), Category: r.Category}
	}
	mapped, err := s.ApplyMap(ctx, txns)
	if err != nil {
		return nil, err
	}
	out := append([]model.Row(nil), rows...)
	for i := range out {
		if mapped[i].Category != txns[i].Category {
			out[i].Category = mapped[i].Category
		}
	}
	return out, nil
}

// distinctNorms returns, in first-seen order, the normalized descriptions of
// rows that read as Uncategorized.
func distinctNorms(rows []model.Transaction, set model.CategorySet) []string {
	seen := make(map[string]bool)
	var norms []string
	for _, r := range rows {
		if set.Coerce(r.Category) != model.Uncategorized {
			continue
		}
		norm := normOf(r)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		norms = append(norms, norm)
	}
	return norms
}
