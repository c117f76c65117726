package categories

import (
	"context"
	"fmt"

	"github.com/cleared-dev/cartola/internal/model"
)

// Confidence levels per suggestion source.
const (
	ExactConfidence   = 1.0
	HistoryConfidence = 0.8
)

// DefaultAutoApply is the confidence at or above which a suggestion may be
// accepted without asking. Only exact map hits reach it.
const DefaultAutoApply = 0.9

// Suggest proposes a category for every row that reads as Uncategorized.
// Each distinct description is resolved once: first against the category
// map, then against the ledger history, where the most frequent category
// wins if it holds at least the dominant share of categorized rows. Equal
// counts go to the category that sorts first by name. Anything left gets
// Uncategorized with source "none".
func (s *Service) Suggest(ctx context.Context, rows []model.Transaction) ([]model.Suggestion, error) {
	set, err := s.Set(ctx)
	if err != nil {
		return nil, err
	}

	norms := distinctNorms(rows, set)
	if len(norms) == 0 {
		return nil, nil
	}

	resolved := make(map[string]model.Suggestion, len(norms))

	mapped, err := s.store.LookupCategoryMap(ctx, norms)
	if err != nil {
		return nil, fmt.Errorf("looking up category map: %w", err)
	}
	var rest []string
	for _, norm := range norms {
		cat, ok := mapped[norm]
		if ok && cat != model.Uncategorized && set.Contains(cat) {
			resolved[norm] = model.Suggestion{Category: cat, Source: model.SourceExact, Confidence: ExactConfidence}
			continue
		}
		rest = append(rest, norm)
	}

	if len(rest) > 0 {
		hist, err := s.store.CategoryHistory(ctx, rest, model.Uncategorized)
		if err != nil {
			return nil, fmt.Errorf("loading category history: %w", err)
		}
		for norm, cat := range dominant(hist, set, s.dominantShare) {
			resolved[norm] = model.Suggestion{Category: cat, Source: model.SourceDominantHistory, Confidence: HistoryConfidence}
		}
	}

	var out []model.Suggestion
	for _, r := range rows {
		if set.Coerce(r.Category) != model.Uncategorized {
			continue
		}
		norm := normOf(r)
		sug, ok := resolved[norm]
		if !ok {
			sug = model.Suggestion{Category: model.Uncategorized, Source: model.SourceNone}
		}
		sug.UniqueKey = r.UniqueKey
		sug.Description = r.Description
		sug.DescriptionNorm = norm
		out = append(out, sug)
	}
	return out, nil
}

// dominant picks, per description, the category holding at least share of
// the active categorized history.
func dominant(hist []model.CategoryCount, set model.CategorySet, share float64) map[string]string {
	type tally struct {
		total    int64
		top      string
		topCount int64
	}
	byNorm := make(map[string]*tally)
	for _, h := range hist {
		if h.Category == model.Uncategorized || !set.Contains(h.Category) {
			continue
		}
		t, ok := byNorm[h.DescriptionNorm]
		if !ok {
			t = &tally{}
			byNorm[h.DescriptionNorm] = t
		}
		t.total += h.Count
		if h.Count > t.topCount || (h.Count == t.topCount && h.Category < t.top) {
			t.top = h.Category
			t.topCount = h.Count
		}
	}

	out := make(map[string]string)
	for norm, t := range byNorm {
		if t.total > 0 && float64(t.topCount)/float64(t.total) >= share {
			out[norm] = t.top
		}
	}
	return out
}

// AutoApplicable returns the suggestions that may be accepted without asking.
func AutoApplicable(sugs []model.Suggestion, threshold float64) []model.Suggestion {
	var out []model.Suggestion
	for _, sg := range sugs {
		if sg.AutoApply(threshold) {
			out = append(out, sg)
		}
	}
	return out
}

// AcceptSuggestions writes the suggested categories to their ledger rows and
// learns them into the category map. Suggestions with source "none" are
// skipped. It returns the number of rows updated.
func (s *Service) AcceptSuggestions(ctx context.Context, sugs []model.Suggestion) (int, error) {
	var edits []model.Edit
	var learned []model.Transaction
	for _, sg := range sugs {
		if sg.Source == model.SourceNone || sg.UniqueKey == "" {
			continue
		}
		edits = append(edits, model.Edit{
			Ref:    model.Ref{Key: sg.UniqueKey},
			Values: map[model.Field]string{model.FieldCategory: sg.Category},
		})
		learned = append(learned, model.Transaction{DescriptionNorm: sg.DescriptionNorm, Category: sg.Category})
	}
	if len(edits) == 0 {
		return 0, nil
	}

	n, err := s.ledger.ApplyEdits(ctx, edits)
	if err != nil {
		return n, fmt.Errorf("accepting suggestions: %w", err)
	}
	if _, err := s.Learn(ctx, learned); err != nil {
		return n, err
	}
	return n, nil
}
