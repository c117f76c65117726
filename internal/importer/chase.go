package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4

	chaseTransferType = "ACCT_XFER"
)

var chaseHeader = []string{"details", "posting date", "description", "amount", "type", "balance", "check or slip #"}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Accepts matches the Chase checking header row.
func (p *ChaseParser) Accepts(header []string) bool {
	if len(header) != len(chaseHeader) {
		return false
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != chaseHeader[i] {
			return false
		}
	}
	return true
}

// Parse reads a Chase CSV. A posting date that is not MM/DD/YYYY is kept as
// raw text and an unreadable amount is left invalid.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, parseChaseRow(rec))
	}
	return rows, nil
}

func parseChaseRow(rec []string) model.Row {
	date := strings.TrimSpace(rec[chaseColDate])
	if t, err := time.Parse(chaseDateFormat, date); err == nil {
		date = id.FormatDate(t)
	}

	row := model.Row{
		Date:        date,
		Description: strings.TrimSpace(rec[chaseColDesc]),
		Amount:      model.ParseNullDecimal(rec[chaseColAmount]),
	}
	if strings.TrimSpace(rec[chaseColType]) == chaseTransferType {
		yes := true
		row.IsTransfer = &yes
	}
	return row
}
