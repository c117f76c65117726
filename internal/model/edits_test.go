package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditChanges(t *testing.T) {
	e := Edit{
		Ref: Ref{Key: "k:0123456789abcdef"},
		Values: map[Field]string{
			FieldAmountCorrected: "12.50",
			FieldCategory:        "  Groceries ",
			FieldUserNote:        "split with Ana",
			FieldIsExpense:       "sí",
			"amount":             "99",
		},
	}

	c, unknown := e.Changes()
	require.NotNil(t, c.AmountCorrected)
	assert.True(t, c.AmountCorrected.Valid)
	assert.Equal(t, "12.5", c.AmountCorrected.Decimal.String())
	require.NotNil(t, c.Category)
	assert.Equal(t, "Groceries", *c.Category)
	require.NotNil(t, c.UserNote)
	assert.Equal(t, "split with Ana", *c.UserNote)
	require.NotNil(t, c.IsExpense)
	assert.True(t, *c.IsExpense)
	assert.Nil(t, c.IsTransfer)
	assert.Equal(t, []Field{"amount"}, unknown)
}

func TestParseNullDecimal(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{"10", true, "10"},
		{" -4.25 ", true, "-4.25"},
		{"", false, ""},
		{"abc", false, ""},
	}
	for _, tt := range tests {
		got := ParseNullDecimal(tt.in)
		assert.Equal(t, tt.valid, got.Valid, "input %q", tt.in)
		if tt.valid {
			assert.Equal(t, tt.want, got.Decimal.String(), "input %q", tt.in)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "T", "yes", "Y", "si", "Sí", "s"} {
		assert.True(t, ParseBool(s), "%q should be true", s)
	}
	for _, s := range []string{"", "0", "false", "no", "maybe"} {
		assert.False(t, ParseBool(s), "%q should be false", s)
	}
}

func TestPendingEdits_OverlayAndEdits(t *testing.T) {
	rows := []Transaction{
		{ID: 1, UniqueKey: "k:a", Category: Uncategorized},
		{ID: 2, UniqueKey: "k:b", Category: "Transport"},
		{ID: 3, UniqueKey: "k:c", Category: Uncategorized},
	}

	p := NewPendingEdits()
	p.Set(Ref{Key: "k:a"}, FieldCategory, "Groceries")
	p.Set(Ref{ID: 3}, FieldUserNote, "refund pending")
	p.Set(Ref{Key: "k:a"}, FieldCategory, "Dining")
	p.Set(Ref{}, FieldCategory, "ignored")

	assert.Equal(t, 2, p.Len())

	merged := p.Overlay(rows)
	assert.Equal(t, "Dining", merged[0].Category)
	assert.Equal(t, "Transport", merged[1].Category)
	assert.Equal(t, "refund pending", merged[2].UserNote)
	assert.Equal(t, Uncategorized, rows[0].Category, "overlay must not mutate its input")

	edits := p.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, Ref{Key: "k:a"}, edits[0].Ref)
	assert.Equal(t, "Dining", edits[0].Values[FieldCategory])
	assert.Equal(t, Ref{ID: 3}, edits[1].Ref)

	p.Reset()
	assert.Zero(t, p.Len())
}

func TestChangesApply(t *testing.T) {
	amt := decimal.NullDecimal{Decimal: decimal.RequireFromString("7.10"), Valid: true}
	note := "x"
	c := Changes{AmountCorrected: &amt, UserNote: &note}
	assert.False(t, c.IsEmpty())
	assert.True(t, Changes{}.IsEmpty())

	got := c.Apply(Transaction{Category: "Transport"})
	assert.True(t, got.AmountCorrected.Valid)
	assert.Equal(t, "Transport", got.Category)
	assert.Equal(t, "x", got.UserNote)
}

func TestSuggestionAutoApply(t *testing.T) {
	assert.True(t, Suggestion{Source: SourceExact, Confidence: 1.0}.AutoApply(0.9))
	assert.False(t, Suggestion{Source: SourceDominantHistory, Confidence: 0.8}.AutoApply(0.9))
	assert.False(t, Suggestion{Source: SourceNone, Confidence: 0}.AutoApply(0))
}
