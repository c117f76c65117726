// Package export writes the ledger as CSV. The header uses column names the
// standard importer reads, so an export can be imported again and every row
// gets its original unique key back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/model"
)

// Header is the CSV header for ledger exports.
const Header = "id,unique_key,date,description,description_norm,amount,amount_statement,amount_corrected,category,user_note,is_expense,is_transfer"

const (
	numFields          = 12
	colID              = 0
	colUniqueKey       = 1
	colDate            = 2
	colDescription     = 3
	colDescriptionNorm = 4
	colAmount          = 5
	colAmountStatement = 6
	colAmountCorrected = 7
	colCategory        = 8
	colUserNote        = 9
	colIsExpense       = 10
	colIsTransfer      = 11
)

// WriteTransactions writes txns to w, header first.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. A missing display
// amount is written as the statement amount signed by IsExpense.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(t.ID, 10)
	row[colUniqueKey] = t.UniqueKey
	row[colDate] = t.Date
	row[colDescription] = t.Description
	row[colDescriptionNorm] = t.DescriptionNorm
	row[colAmount] = signedAmount(t).StringFixed(2)
	row[colAmountStatement] = t.AmountStatement.StringFixed(2)
	if t.AmountCorrected.Valid {
		row[colAmountCorrected] = t.AmountCorrected.Decimal.StringFixed(2)
	}
	row[colCategory] = t.Category
	row[colUserNote] = t.UserNote
	row[colIsExpense] = strconv.FormatBool(t.IsExpense)
	row[colIsTransfer] = strconv.FormatBool(t.IsTransfer)
	return row
}

func signedAmount(t model.Transaction) decimal.Decimal {
	if t.Amount.Valid {
		return t.Amount.Decimal
	}
	if t.IsExpense {
		return t.AmountStatement.Neg()
	}
	return t.AmountStatement
}
