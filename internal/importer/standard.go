package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/cartola/internal/model"
)

// StandardParser reads the normalized statement layout: one row per
// movement with a signed amount (expenses negative). Columns are found by
// name, English or Spanish; date, description and amount are required.
type StandardParser struct{}

type column int

const (
	colDate column = iota
	colDescription
	colAmount
	colCategory
	colDescriptionNorm
	colNote
	colIsTransfer
	colIsExpense
)

var standardColumns = map[string]column{
	"date":                     colDate,
	"fecha":                    colDate,
	"description":              colDescription,
	"detalle":                  colDescription,
	"amount":                   colAmount,
	"monto":                    colAmount,
	"category":                 colCategory,
	"categoria":                colCategory,
	"description_norm":         colDescriptionNorm,
	"detalle_norm":             colDescriptionNorm,
	"note":                     colNote,
	"user_note":                colNote,
	"is_transfer":              colIsTransfer,
	"es_transferencia_o_abono": colIsTransfer,
	"is_expense":               colIsExpense,
	"es_gasto":                 colIsExpense,
}

// Format returns the parser name.
func (p *StandardParser) Format() string { return "standard" }

// Accepts matches any header naming the three required columns.
func (p *StandardParser) Accepts(header []string) bool {
	_, err := indexColumns(header)
	return err == nil
}

func indexColumns(header []string) (map[column]int, error) {
	idx := make(map[column]int)
	for i, h := range header {
		c, ok := standardColumns[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	for _, req := range []struct {
		col  column
		name string
	}{{colDate, "date"}, {colDescription, "description"}, {colAmount, "amount"}} {
		if _, ok := idx[req.col]; !ok {
			return nil, fmt.Errorf("missing %s column", req.name)
		}
	}
	return idx, nil
}

// Parse reads a standard CSV. Rows may be shorter than the header.
func (p *StandardParser) Parse(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading standard CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	idx, err := indexColumns(records[0])
	if err != nil {
		return nil, err
	}
	if len(records) == 1 {
		return nil, nil
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		get := func(c column) (string, bool) {
			i, ok := idx[c]
			if !ok || i >= len(rec) {
				return "", false
			}
			return strings.TrimSpace(rec[i]), true
		}
		flag := func(c column) *bool {
			v, ok := get(c)
			if !ok || v == "" {
				return nil
			}
			b := model.ParseBool(v)
			return &b
		}

		row := model.Row{IsTransfer: flag(colIsTransfer), IsExpense: flag(colIsExpense)}
		row.Date, _ = get(colDate)
		row.Description, _ = get(colDescription)
		amount, _ := get(colAmount)
		row.Amount = model.ParseNullDecimal(amount)
		row.Category, _ = get(colCategory)
		row.DescriptionNorm, _ = get(colDescriptionNorm)
		row.UserNote, _ = get(colNote)
		rows = append(rows, row)
	}
	return rows, nil
}
