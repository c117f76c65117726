package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names a mutable transaction column.
type Field string

const (
	FieldAmountCorrected Field = "amount_corrected"
	FieldCategory        Field = "category"
	FieldUserNote        Field = "user_note"
	FieldIsExpense       Field = "is_expense"
	FieldIsTransfer      Field = "is_transfer"
)

// Edit is a set of field updates for one ledger row.
type Edit struct {
	Ref    Ref
	Values map[Field]string
}

// Changes converts the raw values into typed changes. Fields that are not
// mutable are returned separately so the caller can report them.
func (e Edit) Changes() (Changes, []Field) {
	var c Changes
	var unknown []Field
	for f, v := range e.Values {
		switch f {
		case FieldAmountCorrected:
			amt := ParseNullDecimal(v)
			c.AmountCorrected = &amt
		case FieldCategory:
			s := strings.TrimSpace(v)
			c.Category = &s
		case FieldUserNote:
			s := v
			c.UserNote = &s
		case FieldIsExpense:
			b := ParseBool(v)
			c.IsExpense = &b
		case FieldIsTransfer:
			b := ParseBool(v)
			c.IsTransfer = &b
		default:
			unknown = append(unknown, f)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return c, unknown
}

// ParseNullDecimal parses s, yielding an invalid NullDecimal for empty or
// unparseable input.
func ParseNullDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

var truthy = map[string]bool{
	"1": true, "true": true, "t": true, "yes": true, "y": true,
	"si": true, "sí": true, "s": true,
}

// ParseBool accepts the loose spellings found in spreadsheet exports.
func ParseBool(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// PendingEdits accumulates unsaved edits. It replaces implicit session state:
// callers pass it explicitly to whatever renders or persists the ledger.
type PendingEdits struct {
	order []Ref
	byRef map[Ref]map[Field]string
}

// NewPendingEdits returns an empty set of pending edits.
func NewPendingEdits() *PendingEdits {
	return &PendingEdits{byRef: make(map[Ref]map[Field]string)}
}

// Set records value for field on the row addressed by ref. Later calls for
// the same ref and field overwrite earlier ones.
func (p *PendingEdits) Set(ref Ref, field Field, value string) {
	if ref.IsZero() {
		return
	}
	vals, ok := p.byRef[ref]
	if !ok {
		vals = make(map[Field]string)
		p.byRef[ref] = vals
		p.order = append(p.order, ref)
	}
	vals[field] = value
}

// Len returns the number of rows with pending edits.
func (p *PendingEdits) Len() int {
	return len(p.order)
}

// Edits returns the pending edits in the order rows were first touched.
func (p *PendingEdits) Edits() []Edit {
	edits := make([]Edit, 0, len(p.order))
	for _, ref := range p.order {
		vals := make(map[Field]string, len(p.byRef[ref]))
		for f, v := range p.byRef[ref] {
			vals[f] = v
		}
		edits = append(edits, Edit{Ref: ref, Values: vals})
	}
	return edits
}

// Overlay returns a copy of rows with pending values merged in, for display.
func (p *PendingEdits) Overlay(rows []Transaction) []Transaction {
	out := make([]Transaction, len(rows))
	for i, t := range rows {
		vals, ok := p.byRef[Ref{Key: t.UniqueKey}]
		if !ok {
			vals, ok = p.byRef[Ref{ID: t.ID}]
		}
		if !ok {
			out[i] = t
			continue
		}
		c, _ := Edit{Values: vals}.Changes()
		out[i] = c.Apply(t)
	}
	return out
}

// Reset drops every pending edit.
func (p *PendingEdits) Reset() {
	p.order = nil
	p.byRef = make(map[Ref]map[Field]string)
}
