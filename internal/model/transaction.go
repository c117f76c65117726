package model

import (
	"github.com/shopspring/decimal"
)

// Uncategorized is the sentinel category. It is always part of the active
// category set and stands in for empty or unknown categories.
const Uncategorized = "Uncategorized"

// Transaction is a row in the ledger.
type Transaction struct {
	ID              int64               `json:"id"`
	Date            string              `json:"date"` // YYYY-MM-DD, or the raw text when it could not be resolved
	Description     string              `json:"description"`
	DescriptionNorm string              `json:"description_norm"`
	Amount          decimal.NullDecimal `json:"amount"`           // signed display amount, negative = money out
	AmountStatement decimal.Decimal     `json:"amount_statement"` // |amount| at first ingestion, never updated
	AmountCorrected decimal.NullDecimal `json:"amount_corrected"`
	Category        string              `json:"category"`
	UserNote        string              `json:"user_note"`
	IsExpense       bool                `json:"is_expense"`
	IsTransfer      bool                `json:"is_transfer"`
	UniqueKey       string              `json:"unique_key"`
}

// Signature is the secondary duplicate check used alongside the unique key.
type Signature struct {
	Date            string
	DescriptionNorm string
	AmountStatement decimal.Decimal
}

// Signature returns the transaction's (date, norm, statement amount) tuple.
func (t Transaction) Signature() Signature {
	return Signature{
		Date:            t.Date,
		DescriptionNorm: t.DescriptionNorm,
		AmountStatement: t.AmountStatement,
	}
}

// Row is an incoming row handed to the ingestion engine. Only Date,
// Description and Amount are required; the rest are recomputed when absent.
type Row struct {
	Date            string
	Description     string
	Amount          decimal.NullDecimal // Valid=false when the amount could not be parsed
	DescriptionNorm string
	Category        string
	UserNote        string
	AmountCorrected decimal.NullDecimal
	IsExpense       *bool
	IsTransfer      *bool
}

// Ref addresses a ledger row by unique key or, failing that, by id.
type Ref struct {
	Key string
	ID  int64
}

// IsZero reports whether the ref addresses nothing.
func (r Ref) IsZero() bool {
	return r.Key == "" && r.ID == 0
}

// Changes holds the mutable fields of a transaction. Nil fields are left alone.
type Changes struct {
	AmountCorrected *decimal.NullDecimal
	Category        *string
	UserNote        *string
	IsExpense       *bool
	IsTransfer      *bool
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.AmountCorrected == nil && c.Category == nil && c.UserNote == nil &&
		c.IsExpense == nil && c.IsTransfer == nil
}

// Apply returns t with the changes applied.
func (c Changes) Apply(t Transaction) Transaction {
	if c.AmountCorrected != nil {
		t.AmountCorrected = *c.AmountCorrected
	}
	if c.Category != nil {
		t.Category = *c.Category
	}
	if c.UserNote != nil {
		t.UserNote = *c.UserNote
	}
	if c.IsExpense != nil {
		t.IsExpense = *c.IsExpense
	}
	if c.IsTransfer != nil {
		t.IsTransfer = *c.IsTransfer
	}
	return t
}
