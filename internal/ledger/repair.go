package ledger

import (
	"context"
	"fmt"
)

// RepairAmounts re-derives the display amount of every row with a positive
// corrected amount whose display amount is missing, zero or of a different
// magnitude: negative for expenses, positive otherwise. Statement amounts
// and keys are left alone.
func (s *Service) RepairAmounts(ctx context.Context) (int, error) {
	n, err := s.store.RepairAmounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("repairing amounts: %w", err)
	}
	s.log.Info().Int64("repaired", n).Msg("repaired amounts")
	return int(n), nil
}
