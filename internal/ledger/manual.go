package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/id"
	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/normalize"
	"github.com/cleared-dev/cartola/internal/store"
)

// ErrInvalidManualEntry is returned when a manual entry lacks a description
// or a positive amount.
var ErrInvalidManualEntry = errors.New("invalid manual entry")

// ManualEntry is an expense typed in by hand rather than read from a statement.
type ManualEntry struct {
	Date        string
	Description string
	Amount      decimal.Decimal // positive amount spent
	Category    string
	UserNote    string
}

// AddManual records a manual expense. The row is keyed under the "m:"
// scheme, so it never collides with statement rows, and is stored as an
// expense with the entered amount as its corrected amount. Adding the same
// entry twice returns store.ErrConflict.
func (s *Service) AddManual(ctx context.Context, e ManualEntry) (model.Transaction, error) {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return model.Transaction{}, fmt.Errorf("%w: description is required", ErrInvalidManualEntry)
	}
	if !e.Amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidManualEntry)
	}

	date := id.CanonicalDate(e.Date)
	if date == "" {
		date = id.FormatDate(s.now())
	}
	norm := normalize.Description(desc)
	amt := e.Amount.Round(2)

	category := strings.TrimSpace(e.Category)
	if category == "" {
		category = model.Uncategorized
	}

	t := model.Transaction{
		Date:            date,
		Description:     desc,
		DescriptionNorm: norm,
		Amount:          decimal.NullDecimal{Decimal: amt.Neg(), Valid: true},
		AmountStatement: amt,
		AmountCorrected: decimal.NullDecimal{Decimal: amt, Valid: true},
		Category:        category,
		UserNote:        e.UserNote,
		IsExpense:       true,
		UniqueKey:       id.ManualKey(date, norm, amt),
	}

	err := s.store.Tx(ctx, func(q store.Queries) error {
		return q.InsertTransaction(ctx, &t)
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("adding manual entry: %w", err)
	}

	s.log.Info().Str("unique_key", t.UniqueKey).Msg("added manual entry")
	return t, nil
}
