package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/normalize"
)

var transferPattern = regexp.MustCompile(`\b(TRASPAS|TRANSFER|REEMB|REVERSA|CASHBACK|PAGO T)|\bABONO\b`)

// IsTransfer reports whether a normalized description looks like a transfer,
// card payment, refund or reversal rather than spending.
func IsTransfer(descriptionNorm string) bool {
	return transferPattern.MatchString(descriptionNorm)
}

// Prepare derives the stored form of an incoming row: canonical date,
// normalized description, statement amount, unique key and flags. It never
// fails; unparseable dates pass through as text and a missing amount keys
// as 0.00.
func Prepare(r model.Row) model.Transaction {
	date := id.CanonicalDate(r.Date)

	norm := normalize.Description(r.DescriptionNorm)
	if norm == "" {
		norm = normalize.Description(r.Description)
	}

	stmt := decimal.Zero
	if r.Amount.Valid {
		stmt = id.StatementAmount(r.Amount.Decimal)
	}

	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = model.Uncategorized
	}

	t := model.Transaction{
		Date:            date,
		Description:     strings.TrimSpace(r.Description),
		DescriptionNorm: norm,
		Amount:          r.Amount,
		AmountStatement: stmt,
		AmountCorrected: r.AmountCorrected,
		Category:        category,
		UserNote:        r.UserNote,
		IsExpense:       r.Amount.Valid && r.Amount.Decimal.IsNegative(),
		IsTransfer:      IsTransfer(norm),
		UniqueKey:       id.UniqueKey(date, norm, stmt),
	}
	if r.IsExpense != nil {
		t.IsExpense = *r.IsExpense
	}
	if r.IsTransfer != nil {
		t.IsTransfer = *r.IsTransfer
	}
	return t
}
