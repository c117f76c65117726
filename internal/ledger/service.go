// Package ledger owns the transaction ledger: ingestion with duplicate and
// tombstone handling, deletion, edits, the ignored-duplicates log, manual
// entries and amount repair.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// Service runs ledger operations against a store.
type Service struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a Service over s.
func NewService(s store.Store, log zerolog.Logger) *Service {
	return &Service{
		store: s,
		log:   log.With().Str("component", "ledger").Logger(),
		now:   time.Now,
	}
}

// LoadAll returns every ledger row ordered by date.
func (s *Service) LoadAll(ctx context.Context) ([]model.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	return txns, nil
}

// Get returns one ledger row.
func (s *Service) Get(ctx context.Context, ref model.Ref) (model.Transaction, error) {
	return s.store.GetTransaction(ctx, ref)
}
