package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// ListIgnored returns the ignored-duplicates log, newest first.
func (s *Service) ListIgnored(ctx context.Context) ([]model.IgnoredDuplicate, error) {
	return s.store.ListIgnored(ctx)
}

// DecodeIgnored returns the row snapshot stored in an ignored entry.
func DecodeIgnored(d model.IgnoredDuplicate) (model.Transaction, error) {
	var t model.Transaction
	if err := json.Unmarshal([]byte(d.Payload), &t); err != nil {
		return model.Transaction{}, fmt.Errorf("decoding ignored row %d: %w", d.ID, err)
	}
	if t.UniqueKey == "" {
		t.UniqueKey = d.UniqueKey
	}
	return t, nil
}

// RestoreIgnored brings logged rows back into the ledger. For each entry, in
// one transaction, any ledger row with the same key is replaced by the
// snapshot, the key's tombstone is cleared and the entry is removed from the
// log. Unknown ids are skipped. It returns the number of rows restored.
func (s *Service) RestoreIgnored(ctx context.Context, ids []int64) (int, error) {
	var restored int
	for _, logID := range ids {
		if err := ctx.Err(); err != nil {
			return restored, err
		}

		err := s.store.Tx(ctx, func(q store.Queries) error {
			d, err := q.GetIgnored(ctx, logID)
			if err != nil {
				return err
			}
			t, err := DecodeIgnored(d)
			if err != nil {
				return err
			}
			t.ID = 0
			if err := q.ReplaceTransaction(ctx, &t); err != nil {
				return err
			}
			if _, err := q.ClearTombstones(ctx, []string{t.UniqueKey}); err != nil {
				return err
			}
			_, err = q.DeleteIgnored(ctx, []int64{logID})
			return err
		})
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Int64("ignored_id", logID).Msg("ignored entry not found")
			continue
		}
		if err != nil {
			return restored, fmt.Errorf("restoring ignored row %d: %w", logID, err)
		}
		restored++
	}

	s.log.Info().Int("restored", restored).Msg("restored ignored rows")
	return restored, nil
}

// ClearIgnored drops entries from the log without restoring them. An empty
// ids clears the whole log.
func (s *Service) ClearIgnored(ctx context.Context, ids []int64) (int, error) {
	n, err := s.store.DeleteIgnored(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("cleared", n).Msg("cleared ignored rows")
	return int(n), nil
}
