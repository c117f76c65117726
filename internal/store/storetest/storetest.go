// Package storetest holds the conformance suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// Opener returns a freshly migrated, empty store for one subtest.
type Opener func(t *testing.T) store.Store

// Run executes the suite against the backend returned by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"InsertAndGet", testInsertAndGet},
		{"InsertConflict", testInsertConflict},
		{"SignatureExists", testSignatureExists},
		{"FillMissingAmount", testFillMissingAmount},
		{"UpdateTransaction", testUpdateTransaction},
		{"DeleteAndResolveIDs", testDeleteAndResolveIDs},
		{"ReplaceTransaction", testReplaceTransaction},
		{"RepairAmounts", testRepairAmounts},
		{"Tombstones", testTombstones},
		{"Ignored", testIgnored},
		{"Categories", testCategories},
		{"RenameCategory", testRenameCategory},
		{"CategoryMap", testCategoryMap},
		{"CategoryHistory", testCategoryHistory},
		{"TxRollback", testTxRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

// Txn builds a statement transaction keyed the way ingestion keys it.
func Txn(date, norm, amt, category string) model.Transaction {
	a := decimal.RequireFromString(amt)
	return model.Transaction{
		Date:            date,
		Description:     norm,
		DescriptionNorm: norm,
		Amount:          decimal.NullDecimal{Decimal: a, Valid: true},
		AmountStatement: id.StatementAmount(a),
		Category:        category,
		IsExpense:       a.IsNegative(),
		UniqueKey:       id.UniqueKey(date, norm, a),
	}
}

func insert(t *testing.T, s store.Store, txns ...model.Transaction) []model.Transaction {
	t.Helper()
	ctx := context.Background()
	out := make([]model.Transaction, len(txns))
	for i := range txns {
		tx := txns[i]
		require.NoError(t, s.InsertTransaction(ctx, &tx))
		out[i] = tx
	}
	return out
}

func testInsertAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	got := insert(t, s, Txn("2024-03-01", "SUPERMERCADO LIDER", "-45.30", "Groceries"))[0]
	require.NotZero(t, got.ID)

	byKey, err := s.GetTransaction(ctx, model.Ref{Key: got.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, got.ID, byKey.ID)
	assert.Equal(t, "2024-03-01", byKey.Date)
	assert.Equal(t, "SUPERMERCADO LIDER", byKey.DescriptionNorm)
	assert.Equal(t, "-45.30", byKey.Amount.Decimal.StringFixed(2))
	assert.Equal(t, "45.30", byKey.AmountStatement.StringFixed(2))
	assert.False(t, byKey.AmountCorrected.Valid)
	assert.True(t, byKey.IsExpense)
	assert.Equal(t, "Groceries", byKey.Category)

	byID, err := s.GetTransaction(ctx, model.Ref{ID: got.ID})
	require.NoError(t, err)
	assert.Equal(t, got.UniqueKey, byID.UniqueKey)

	_, err = s.GetTransaction(ctx, model.Ref{Key: "k:missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testInsertConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s, Txn("2024-03-01", "CAFE", "-3.00", model.Uncategorized))

	dup := Txn("2024-03-01", "CAFE", "-3.00", model.Uncategorized)
	err := s.InsertTransaction(ctx, &dup)
	assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testSignatureExists(t *testing.T, s store.Store) {
	ctx := context.Background()
	legacy := Txn("2024-03-02", "UBER TRIP", "-12.40", model.Uncategorized)
	legacy.UniqueKey = "legacy-0001"
	insert(t, s, legacy)

	ok, err := s.SignatureExists(ctx, model.Signature{
		Date: "2024-03-02", DescriptionNorm: "UBER TRIP", AmountStatement: decimal.RequireFromString("12.4"),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SignatureExists(ctx, model.Signature{
		Date: "2024-03-02", DescriptionNorm: "UBER TRIP", AmountStatement: decimal.RequireFromString("12.41"),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func testFillMissingAmount(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx := Txn("2024-03-03", "PAYROLL", "0", model.Uncategorized)
	tx.Amount = decimal.NullDecimal{}
	insert(t, s, tx)

	require.NoError(t, s.FillMissingAmount(ctx, tx.UniqueKey, decimal.RequireFromString("1500")))
	got, err := s.GetTransaction(ctx, model.Ref{Key: tx.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "1500.00", got.Amount.Decimal.StringFixed(2))

	// An existing non-zero amount is left alone.
	require.NoError(t, s.FillMissingAmount(ctx, tx.UniqueKey, decimal.RequireFromString("9")))
	got, err = s.GetTransaction(ctx, model.Ref{Key: tx.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "1500.00", got.Amount.Decimal.StringFixed(2))
}

func testUpdateTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	tx := insert(t, s, Txn("2024-03-04", "NETFLIX", "-9.99", model.Uncategorized))[0]

	cat := "Subscriptions"
	note := "family plan"
	corrected := amount("10.49")
	transfer := true
	n, err := s.UpdateTransaction(ctx, model.Ref{ID: tx.ID}, model.Changes{
		Category: &cat, UserNote: &note, AmountCorrected: &corrected, IsTransfer: &transfer,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.GetTransaction(ctx, model.Ref{Key: tx.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "Subscriptions", got.Category)
	assert.Equal(t, "family plan", got.UserNote)
	assert.Equal(t, "10.49", got.AmountCorrected.Decimal.StringFixed(2))
	assert.True(t, got.IsTransfer)
	assert.Equal(t, "9.99", got.AmountStatement.StringFixed(2))

	cleared := decimal.NullDecimal{}
	_, err = s.UpdateTransaction(ctx, model.Ref{Key: tx.UniqueKey}, model.Changes{AmountCorrected: &cleared})
	require.NoError(t, err)
	got, err = s.GetTransaction(ctx, model.Ref{Key: tx.UniqueKey})
	require.NoError(t, err)
	assert.False(t, got.AmountCorrected.Valid)

	n, err = s.UpdateTransaction(ctx, model.Ref{Key: "k:missing"}, model.Changes{Category: &cat})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testDeleteAndResolveIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	txns := insert(t, s,
		Txn("2024-03-05", "A", "-1", model.Uncategorized),
		Txn("2024-03-05", "B", "-2", model.Uncategorized),
		Txn("2024-03-05", "C", "-3", model.Uncategorized),
	)

	keys, err := s.KeysForIDs(ctx, []int64{txns[0].ID, txns[2].ID, 999999})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{txns[0].UniqueKey, txns[2].UniqueKey}, keys)

	n, err := s.DeleteTransactions(ctx, append(keys, "k:missing"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, txns[1].UniqueKey, all[0].UniqueKey)
}

func testReplaceTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	orig := insert(t, s, Txn("2024-03-06", "GYM", "-30", "Health"))[0]

	repl := Txn("2024-03-06", "GYM", "-30", "Sports")
	repl.UserNote = "restored"
	require.NoError(t, s.ReplaceTransaction(ctx, &repl))
	assert.NotEqual(t, orig.ID, repl.ID)

	got, err := s.GetTransaction(ctx, model.Ref{Key: orig.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "Sports", got.Category)
	assert.Equal(t, "restored", got.UserNote)
}

func testRepairAmounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	expense := Txn("2024-03-07", "RENT", "-500", "Housing")
	expense.AmountCorrected = amount("550")
	income := Txn("2024-03-07", "REFUND", "0", model.Uncategorized)
	income.Amount = decimal.NullDecimal{}
	income.AmountCorrected = amount("20")
	fine := Txn("2024-03-07", "BOOKS", "-15", model.Uncategorized)
	fine.AmountCorrected = amount("15")
	insert(t, s, expense, income, fine)

	n, err := s.RepairAmounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.GetTransaction(ctx, model.Ref{Key: expense.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "-550.00", got.Amount.Decimal.StringFixed(2))
	assert.Equal(t, "500.00", got.AmountStatement.StringFixed(2))

	got, err = s.GetTransaction(ctx, model.Ref{Key: income.UniqueKey})
	require.NoError(t, err)
	assert.Equal(t, "20.00", got.Amount.Decimal.StringFixed(2))
}

func testTombstones(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddTombstone(ctx, "k:aaaaaaaaaaaaaaaa", at))
	require.NoError(t, s.AddTombstone(ctx, "k:aaaaaaaaaaaaaaaa", at.Add(time.Hour)))
	require.NoError(t, s.AddTombstone(ctx, "k:bbbbbbbbbbbbbbbb", at.Add(time.Minute)))

	ok, err := s.TombstoneExists(ctx, "k:aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TombstoneExists(ctx, "k:cccccccccccccccc")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.ListTombstones(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "k:bbbbbbbbbbbbbbbb", list[0].UniqueKey)
	assert.True(t, at.Equal(list[1].DeletedAt), "first deletion time is kept")

	n, err := s.ClearTombstones(ctx, []string{"k:bbbbbbbbbbbbbbbb"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.ClearTombstones(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testIgnored(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddIgnored(ctx, model.IgnoredDuplicate{UniqueKey: "k:1111111111111111", Payload: `{"a":1}`, CreatedAt: at}))
	require.NoError(t, s.AddIgnored(ctx, model.IgnoredDuplicate{UniqueKey: "k:1111111111111111", Payload: `{"a":2}`, CreatedAt: at}))
	require.NoError(t, s.AddIgnored(ctx, model.IgnoredDuplicate{UniqueKey: "k:2222222222222222", Payload: `{"b":1}`, CreatedAt: at.Add(time.Second)}))

	list, err := s.ListIgnored(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "k:2222222222222222", list[0].UniqueKey)
	assert.Equal(t, `{"a":1}`, list[1].Payload)

	got, err := s.GetIgnored(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "k:1111111111111111", got.UniqueKey)

	_, err = s.GetIgnored(ctx, 999999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.DeleteIgnored(ctx, []int64{list[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteIgnored(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ReplaceCategories(ctx, []string{"Transport", model.Uncategorized, "Groceries", "Transport"}))

	names, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Transport", model.Uncategorized}, names)

	require.NoError(t, s.ReplaceCategories(ctx, []string{model.Uncategorized}))
	names, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{model.Uncategorized}, names)
}

func testRenameCategory(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ReplaceCategories(ctx, []string{model.Uncategorized, "Groceries", "Transport"}))
	insert(t, s,
		Txn("2024-03-10", "LIDER", "-10", "Groceries"),
		Txn("2024-03-11", "JUMBO", "-20", "Groceries"),
		Txn("2024-03-11", "METRO", "-1", "Transport"),
	)
	_, err := s.UpsertCategoryMap(ctx, []model.CategoryMapEntry{
		{DescriptionNorm: "LIDER", Category: "Groceries"},
		{DescriptionNorm: "METRO", Category: "Transport"},
	})
	require.NoError(t, err)

	require.NoError(t, s.RenameCategory(ctx, "Groceries", "Food"))

	names, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Transport", model.Uncategorized}, names)

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	for _, tx := range all {
		assert.NotEqual(t, "Groceries", tx.Category)
	}

	m, err := s.ListCategoryMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryMapEntry{
		{DescriptionNorm: "LIDER", Category: "Food"},
		{DescriptionNorm: "METRO", Category: "Transport"},
	}, m)
}

func testCategoryMap(t *testing.T, s store.Store) {
	ctx := context.Background()
	n, err := s.UpsertCategoryMap(ctx, []model.CategoryMapEntry{
		{DescriptionNorm: "SPOTIFY", Category: "Subscriptions"},
		{DescriptionNorm: "SHELL", Category: "Fuel"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.UpsertCategoryMap(ctx, []model.CategoryMapEntry{{DescriptionNorm: "SHELL", Category: "Transport"}})
	require.NoError(t, err)

	got, err := s.LookupCategoryMap(ctx, []string{"SHELL", "SPOTIFY", "UNKNOWN"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"SHELL": "Transport", "SPOTIFY": "Subscriptions"}, got)

	got, err = s.LookupCategoryMap(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testCategoryHistory(t *testing.T, s store.Store) {
	ctx := context.Background()
	var txns []model.Transaction
	for i := 0; i < 3; i++ {
		txns = append(txns, Txn(fmt.Sprintf("2024-04-%02d", i+1), "COPEC", "-20", "Fuel"))
	}
	txns = append(txns,
		Txn("2024-04-05", "COPEC", "-5", "Snacks"),
		Txn("2024-04-06", "COPEC", "-7", model.Uncategorized),
		Txn("2024-04-06", "OTHER", "-7", "Misc"),
	)
	insert(t, s, txns...)

	hist, err := s.CategoryHistory(ctx, []string{"COPEC"}, model.Uncategorized)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{
		{DescriptionNorm: "COPEC", Category: "Fuel", Count: 3},
		{DescriptionNorm: "COPEC", Category: "Snacks", Count: 1},
	}, hist)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Tx(ctx, func(q store.Queries) error {
		tx := Txn("2024-05-01", "ROLLBACK", "-1", model.Uncategorized)
		if err := q.InsertTransaction(ctx, &tx); err != nil {
			return err
		}
		if err := q.AddTombstone(ctx, "k:rolledbackrolled", time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	ok, err := s.TombstoneExists(ctx, "k:rolledbackrolled")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Tx(ctx, func(q store.Queries) error {
		tx := Txn("2024-05-02", "COMMIT", "-1", model.Uncategorized)
		return q.InsertTransaction(ctx, &tx)
	}))
	all, err = s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
