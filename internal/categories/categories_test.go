package categories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cartola/internal/ledger"
	"github.com/cleared-dev/cartola/internal/logger"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
	"github.com/cleared-dev/cartola/internal/store/sqlite"
)

type fixture struct {
	store  store.Store
	ledger *ledger.Service
	cats   *Service
	seq    int
}

func newFixture(t *testing.T, categories ...string) *fixture {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	l := ledger.NewService(st, logger.Nop())
	c := NewService(st, l, logger.Nop(), 0)
	if len(categories) > 0 {
		_, err := c.Replace(context.Background(), categories)
		require.NoError(t, err)
	}
	return &fixture{store: st, ledger: l, cats: c}
}

// seedHistory ingests n distinct rows for norm with the given category.
func (f *fixture) seedHistory(t *testing.T, norm, category string, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows []model.Row
	for i := 0; i < n; i++ {
		f.seq++
		rows = append(rows, model.Row{
			Date:        base.AddDate(0, 0, f.seq).Format("2006-01-02"),
			Description: norm,
			Amount:      model.ParseNullDecimal(fmt.Sprintf("-%d.50", 10+f.seq)),
			Category:    category,
		})
	}
	res, err := f.ledger.Ingest(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, n, res.Inserted)
}

func uncategorized(key, desc string) model.Transaction {
	return model.Transaction{UniqueKey: key, Description: desc, Category: model.Uncategorized}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	names, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized}, names)

	got, err := f.cats.Replace(ctx, []string{"Transport", " Groceries ", "Transport", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized, "Groceries", "Transport"}, got)

	names, err = f.cats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, names)
}

func TestAddRemove(t *testing.T) {
	f := newFixture(t, "Groceries")
	ctx := context.Background()

	require.NoError(t, f.cats.Add(ctx, "Travel"))
	require.NoError(t, f.cats.Add(ctx, "Travel"))
	require.Error(t, f.cats.Add(ctx, "  "))
	require.NoError(t, f.cats.Remove(ctx, "Groceries"))
	assert.ErrorIs(t, f.cats.Remove(ctx, model.Uncategorized), ErrSentinel)

	names, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized, "Travel"}, names)
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded, err := f.cats.Seed(ctx, Defaults())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = f.cats.Seed(ctx, []string{"Other"})
	require.NoError(t, err)
	assert.False(t, seeded, "an existing set is left alone")

	names, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, len(Defaults()))
	assert.Equal(t, model.Uncategorized, names[0])
}

func TestRenamePropagation(t *testing.T) {
	f := newFixture(t, "Groceries", "Transport")
	ctx := context.Background()
	f.seedHistory(t, "LIDER", "Groceries", 3)
	f.seedHistory(t, "METRO", "Transport", 1)
	_, err := f.cats.Learn(ctx, []model.Transaction{
		{DescriptionNorm: "LIDER", Category: "Groceries"},
		{DescriptionNorm: "JUMBO", Category: "Groceries"},
	})
	require.NoError(t, err)

	require.NoError(t, f.cats.Rename(ctx, "Groceries", "Food"))

	names, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized, "Food", "Transport"}, names)

	all, err := f.ledger.LoadAll(ctx)
	require.NoError(t, err)
	for _, tx := range all {
		assert.NotEqual(t, "Groceries", tx.Category)
	}
	m, err := f.store.ListCategoryMap(ctx)
	require.NoError(t, err)
	for _, e := range m {
		assert.NotEqual(t, "Groceries", e.Category)
	}
	assert.Len(t, m, 2)
}

func TestRename_NoOps(t *testing.T) {
	f := newFixture(t, "Groceries")
	ctx := context.Background()

	require.NoError(t, f.cats.Rename(ctx, "", "Food"))
	require.NoError(t, f.cats.Rename(ctx, "Groceries", " "))
	require.NoError(t, f.cats.Rename(ctx, "Groceries", "Groceries"))
	require.NoError(t, f.cats.Rename(ctx, model.Uncategorized, "Misc"))

	names, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized, "Groceries"}, names)
}

func TestLearn(t *testing.T) {
	f := newFixture(t, "Groceries", "Dining")
	ctx := context.Background()

	n, err := f.cats.Learn(ctx, []model.Transaction{
		{Description: "Lider Express", Category: "Groceries"},
		{DescriptionNorm: "STARBUCKS", Category: "Groceries"},
		{DescriptionNorm: "STARBUCKS", Category: "Dining"},
		{DescriptionNorm: "UNKNOWN CAT", Category: "Astrology"},
		{DescriptionNorm: "NOTHING", Category: model.Uncategorized},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := f.store.LookupCategoryMap(ctx, []string{"LIDER EXPRESS", "STARBUCKS", "UNKNOWN CAT", "NOTHING"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"LIDER EXPRESS": "Groceries", "STARBUCKS": "Dining"}, m)
}

func TestLearn_EmptyOrSentinelBatch(t *testing.T) {
	f := newFixture(t, "Groceries")
	ctx := context.Background()

	n, err := f.cats.Learn(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.cats.Learn(ctx, []model.Transaction{{DescriptionNorm: "X", Category: ""}, {DescriptionNorm: "Y", Category: model.Uncategorized}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplyMap(t *testing.T) {
	f := newFixture(t, "Groceries", "Transport")
	ctx := context.Background()
	_, err := f.cats.Learn(ctx, []model.Transaction{{DescriptionNorm: "LIDER", Category: "Groceries"}})
	require.NoError(t, err)

	rows := []model.Transaction{
		{Description: "Lider", Category: model.Uncategorized},
		{Description: "Lider", Category: "Transport"},
		{Description: "Copec", Category: ""},
	}
	got, err := f.cats.ApplyMap(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got[0].Category)
	assert.Equal(t, "Transport", got[1].Category, "categorized rows are kept")
	assert.Equal(t, "", got[2].Category)
	assert.Equal(t, model.Uncategorized, rows[0].Category, "input is not modified")

	in, err := f.cats.ApplyMapToRows(ctx, []model.Row{{Description: "LIDER"}, {Description: "COPEC"}})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", in[0].Category)
	assert.Equal(t, "", in[1].Category)
}

func TestSuggest_Exact(t *testing.T) {
	f := newFixture(t, "Subscriptions")
	ctx := context.Background()
	_, err := f.cats.Learn(ctx, []model.Transaction{{DescriptionNorm: "SPOTIFY", Category: "Subscriptions"}})
	require.NoError(t, err)

	sugs, err := f.cats.Suggest(ctx, []model.Transaction{
		uncategorized("k:1", "Spotify"),
		uncategorized("k:2", "SPOTIFY"),
		{UniqueKey: "k:3", Description: "Spotify", Category: "Subscriptions"},
	})
	require.NoError(t, err)
	require.Len(t, sugs, 2)
	for _, sg := range sugs {
		assert.Equal(t, "Subscriptions", sg.Category)
		assert.Equal(t, model.SourceExact, sg.Source)
		assert.InDelta(t, 1.0, sg.Confidence, 1e-9)
		assert.True(t, sg.AutoApply(DefaultAutoApply))
	}
	assert.Equal(t, "k:1", sugs[0].UniqueKey)
	assert.Equal(t, "SPOTIFY", sugs[0].DescriptionNorm)
}

func TestSuggest_DominantHistoryThreshold(t *testing.T) {
	f := newFixture(t, "A", "B")
	ctx := context.Background()
	f.seedHistory(t, "EIGHTY", "A", 8)
	f.seedHistory(t, "EIGHTY", "B", 2)
	f.seedHistory(t, "SIXTY", "A", 6)
	f.seedHistory(t, "SIXTY", "B", 4)

	sugs, err := f.cats.Suggest(ctx, []model.Transaction{
		uncategorized("k:e", "eighty"),
		uncategorized("k:s", "sixty"),
	})
	require.NoError(t, err)
	require.Len(t, sugs, 2)

	assert.Equal(t, "A", sugs[0].Category)
	assert.Equal(t, model.SourceDominantHistory, sugs[0].Source)
	assert.InDelta(t, 0.8, sugs[0].Confidence, 1e-9)
	assert.False(t, sugs[0].AutoApply(DefaultAutoApply))

	assert.Equal(t, model.Uncategorized, sugs[1].Category)
	assert.Equal(t, model.SourceNone, sugs[1].Source)
	assert.Zero(t, sugs[1].Confidence)
}

func TestSuggest_ExactlySeventyPercent(t *testing.T) {
	f := newFixture(t, "A", "B")
	ctx := context.Background()
	f.seedHistory(t, "SEVENTY", "A", 7)
	f.seedHistory(t, "SEVENTY", "B", 3)

	sugs, err := f.cats.Suggest(ctx, []model.Transaction{uncategorized("k:7", "seventy")})
	require.NoError(t, err)
	require.Len(t, sugs, 1)
	assert.Equal(t, "A", sugs[0].Category)
	assert.Equal(t, model.SourceDominantHistory, sugs[0].Source)
}

func TestSuggest_InactiveCategoriesCountAsUncategorized(t *testing.T) {
	f := newFixture(t, "A", "Old")
	ctx := context.Background()
	f.seedHistory(t, "SHOP", "A", 3)
	f.seedHistory(t, "SHOP", "Old", 7)
	require.NoError(t, f.cats.Remove(ctx, "Old"))

	sugs, err := f.cats.Suggest(ctx, []model.Transaction{
		uncategorized("k:1", "shop"),
		{UniqueKey: "k:2", Description: "shop", Category: "Old"},
	})
	require.NoError(t, err)
	require.Len(t, sugs, 2, "a row with an inactive category needs a suggestion too")
	assert.Equal(t, "A", sugs[0].Category, "inactive history is excluded from the share")
	assert.Equal(t, "k:2", sugs[1].UniqueKey)
}

func TestDominant_TieBreaksByName(t *testing.T) {
	set := model.NewCategorySet([]string{"Beta", "Alpha"})
	got := dominant([]model.CategoryCount{
		{DescriptionNorm: "X", Category: "Beta", Count: 5},
		{DescriptionNorm: "X", Category: "Alpha", Count: 5},
	}, set, 0.5)
	assert.Equal(t, map[string]string{"X": "Alpha"}, got)
}

func TestAcceptSuggestions(t *testing.T) {
	f := newFixture(t, "Subscriptions")
	ctx := context.Background()
	_, err := f.ledger.Ingest(ctx, []model.Row{
		{Date: "2024-06-01", Description: "NETFLIX.COM", Amount: model.ParseNullDecimal("-9.99")},
		{Date: "2024-06-02", Description: "MYSTERY", Amount: model.ParseNullDecimal("-1")},
	})
	require.NoError(t, err)
	_, err = f.cats.Learn(ctx, []model.Transaction{{DescriptionNorm: "NETFLIX COM", Category: "Subscriptions"}})
	require.NoError(t, err)

	all, err := f.ledger.LoadAll(ctx)
	require.NoError(t, err)
	sugs, err := f.cats.Suggest(ctx, all)
	require.NoError(t, err)
	require.Len(t, sugs, 2)

	auto := AutoApplicable(sugs, DefaultAutoApply)
	require.Len(t, auto, 1)

	n, err := f.cats.AcceptSuggestions(ctx, sugs)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "source none is never applied")

	all, err = f.ledger.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Subscriptions", all[0].Category)
	assert.Equal(t, model.Uncategorized, all[1].Category)
}
