package ledger

import (
	"context"
	"fmt"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// Delete removes rows by unique key and/or id. Every resolved key is
// tombstoned first so a later upload cannot bring the row back; keys with no
// ledger row are tombstoned too. It returns the number of rows removed.
func (s *Service) Delete(ctx context.Context, keys []string, ids []int64) (int, error) {
	if len(keys) == 0 && len(ids) == 0 {
		return 0, nil
	}

	var removed int64
	err := s.store.Tx(ctx, func(q store.Queries) error {
		resolved, err := q.KeysForIDs(ctx, ids)
		if err != nil {
			return err
		}
		all := dedupe(append(append([]string{}, keys...), resolved...))

		now := s.now()
		for _, k := range all {
			if err := q.AddTombstone(ctx, k, now); err != nil {
				return err
			}
		}
		removed, err = q.DeleteTransactions(ctx, all)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}

	s.log.Info().Int64("deleted", removed).Int("keys", len(keys)).Int("ids", len(ids)).Msg("deleted transactions")
	return int(removed), nil
}

// ListTombstones returns every tombstoned key, newest first.
func (s *Service) ListTombstones(ctx context.Context) ([]model.Tombstone, error) {
	return s.store.ListTombstones(ctx)
}

// ClearTombstones makes the given keys ingestible again. An empty keys
// clears every tombstone.
func (s *Service) ClearTombstones(ctx context.Context, keys []string) (int, error) {
	n, err := s.store.ClearTombstones(ctx, keys)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("cleared", n).Msg("cleared tombstones")
	return int(n), nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
