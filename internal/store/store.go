// Package store defines the persistence contract shared by the SQLite and
// Postgres backends. The ledger and category services depend only on it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/model"
)

var (
	// ErrNotFound is returned when a ref resolves to no ledger row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert loses on a unique constraint.
	ErrConflict = errors.New("unique constraint conflict")
)

// Store is a ledger database. Queries run outside a transaction execute
// each statement on its own; Tx groups them into one atomic unit.
type Store interface {
	Queries

	// Migrate creates any missing tables and indexes.
	Migrate(ctx context.Context) error

	// Tx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	Tx(ctx context.Context, fn func(q Queries) error) error

	// Driver returns the backend name ("sqlite" or "postgres").
	Driver() string

	Close() error
}

// Queries are the statements both backends implement.
type Queries interface {
	// InsertTransaction inserts t unless its unique key already exists.
	// It returns ErrConflict when the key is taken and sets t.ID otherwise.
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	// FillMissingAmount sets amount where it is NULL or zero.
	FillMissingAmount(ctx context.Context, key string, amount decimal.Decimal) error
	// SignatureExists reports whether any row carries sig, whatever its key.
	SignatureExists(ctx context.Context, sig model.Signature) (bool, error)
	GetTransaction(ctx context.Context, ref model.Ref) (model.Transaction, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	// UpdateTransaction applies c and returns the number of rows touched.
	UpdateTransaction(ctx context.Context, ref model.Ref, c model.Changes) (int64, error)
	// ReplaceTransaction deletes any row with t.UniqueKey and inserts t.
	ReplaceTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransactions(ctx context.Context, keys []string) (int64, error)
	KeysForIDs(ctx context.Context, ids []int64) ([]string, error)
	// RepairAmounts aligns display amounts with user-corrected amounts.
	RepairAmounts(ctx context.Context) (int64, error)

	// AddTombstone records key unless it is already tombstoned.
	AddTombstone(ctx context.Context, key string, at time.Time) error
	TombstoneExists(ctx context.Context, key string) (bool, error)
	ListTombstones(ctx context.Context) ([]model.Tombstone, error)
	// ClearTombstones removes the given keys, or every tombstone when keys is empty.
	ClearTombstones(ctx context.Context, keys []string) (int64, error)

	// AddIgnored logs d unless its unique key is already logged.
	AddIgnored(ctx context.Context, d model.IgnoredDuplicate) error
	ListIgnored(ctx context.Context) ([]model.IgnoredDuplicate, error)
	GetIgnored(ctx context.Context, id int64) (model.IgnoredDuplicate, error)
	// DeleteIgnored removes the given entries, or all of them when ids is empty.
	DeleteIgnored(ctx context.Context, ids []int64) (int64, error)

	ListCategories(ctx context.Context) ([]string, error)
	// ReplaceCategories swaps the whole category set for names.
	ReplaceCategories(ctx context.Context, names []string) error
	// RenameCategory renames old to new in categories, transactions and the
	// category map.
	RenameCategory(ctx context.Context, oldName, newName string) error

	// UpsertCategoryMap writes entries, last write wins, and returns the count.
	UpsertCategoryMap(ctx context.Context, entries []model.CategoryMapEntry) (int64, error)
	// LookupCategoryMap returns the mapped category for each known norm.
	LookupCategoryMap(ctx context.Context, norms []string) (map[string]string, error)
	ListCategoryMap(ctx context.Context) ([]model.CategoryMapEntry, error)
	// CategoryHistory counts ledger rows per (norm, category) for the given
	// norms, skipping empty categories and exclude.
	CategoryHistory(ctx context.Context, norms []string, exclude string) ([]model.CategoryCount, error)
}
