package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// IngestResult counts what happened to each row of a batch.
type IngestResult struct {
	BatchID    string
	Inserted   int // new ledger rows
	Ignored    int // duplicates, written to the ignored-duplicates log
	Tombstoned int // previously deleted keys, dropped silently
	Failed     int // rows whose transaction failed on a store error
}

// Total returns the number of rows processed.
func (r IngestResult) Total() int {
	return r.Inserted + r.Ignored + r.Tombstoned + r.Failed
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeIgnored
	outcomeTombstoned
)

func (o outcome) String() string {
	switch o {
	case outcomeInserted:
		return "inserted"
	case outcomeIgnored:
		return "ignored"
	default:
		return "tombstoned"
	}
}

// Ingest adds a batch of statement rows to the ledger. Each row runs in its
// own store transaction, so a failure or cancellation part way through
// keeps the rows already committed and the counts reflect exactly that.
// Cancellation is checked before each row; the partial result is returned
// together with ctx.Err().
func (s *Service) Ingest(ctx context.Context, rows []model.Row) (IngestResult, error) {
	res := IngestResult{BatchID: uuid.NewString()}
	log := s.log.With().Str("batch_id", res.BatchID).Logger()

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("processed", i).Int("total", len(rows)).Msg("ingest cancelled")
			return res, err
		}

		t := Prepare(r)
		out, err := s.ingestOne(ctx, &t)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Int("row", i).Str("unique_key", t.UniqueKey).Msg("ingesting row")
			continue
		}

		switch out {
		case outcomeInserted:
			res.Inserted++
		case outcomeIgnored:
			res.Ignored++
		case outcomeTombstoned:
			res.Tombstoned++
		}
		log.Debug().Int("row", i).Str("unique_key", t.UniqueKey).Stringer("outcome", out).Msg("row ingested")
	}

	log.Info().
		Int("inserted", res.Inserted).
		Int("ignored", res.Ignored).
		Int("tombstoned", res.Tombstoned).
		Int("failed", res.Failed).
		Msg("ingested batch")
	return res, nil
}

func (s *Service) ingestOne(ctx context.Context, t *model.Transaction) (outcome, error) {
	var out outcome
	err := s.store.Tx(ctx, func(q store.Queries) error {
		dead, err := q.TombstoneExists(ctx, t.UniqueKey)
		if err != nil {
			return err
		}
		if dead {
			out = outcomeTombstoned
			return nil
		}

		// The signature check catches rows stored under an older key scheme
		// whose unique_key no longer matches.
		dup, err := q.SignatureExists(ctx, t.Signature())
		if err != nil {
			return err
		}
		if dup {
			out = outcomeIgnored
			return s.recordDuplicate(ctx, q, t)
		}

		err = q.InsertTransaction(ctx, t)
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent insert of the same key.
			out = outcomeIgnored
			return s.recordDuplicate(ctx, q, t)
		}
		if err != nil {
			return err
		}
		out = outcomeInserted
		return nil
	})
	return out, err
}

// recordDuplicate logs t as ignored and, when the stored row with the same
// key has no amount yet, fills it from the incoming row.
func (s *Service) recordDuplicate(ctx context.Context, q store.Queries, t *model.Transaction) error {
	if t.Amount.Valid && !t.Amount.Decimal.IsZero() {
		if err := q.FillMissingAmount(ctx, t.UniqueKey, t.Amount.Decimal); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding ignored row: %w", err)
	}
	return q.AddIgnored(ctx, model.IgnoredDuplicate{
		UniqueKey: t.UniqueKey,
		Payload:   string(payload),
		CreatedAt: s.now(),
	})
}
