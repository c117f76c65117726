// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/cleared-dev/cartola/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	date             TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	description_norm TEXT NOT NULL DEFAULT '',
	amount           REAL,
	amount_statement REAL,
	amount_corrected REAL,
	category         TEXT NOT NULL DEFAULT 'Uncategorized',
	user_note        TEXT NOT NULL DEFAULT '',
	is_expense       INTEGER NOT NULL DEFAULT 0,
	is_transfer      INTEGER NOT NULL DEFAULT 0,
	unique_key       TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_transactions_signature
	ON transactions (date, description_norm);
CREATE INDEX IF NOT EXISTS idx_transactions_norm_category
	ON transactions (description_norm, category);

CREATE TABLE IF NOT EXISTS tombstones (
	unique_key TEXT PRIMARY KEY,
	deleted_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ignored_duplicates (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	unique_key TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS category_map (
	description_norm TEXT PRIMARY KEY,
	category         TEXT NOT NULL
);
`

// Store is a SQLite-backed ledger.
type Store struct {
	*queries
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database file at path. Write transactions take
// the lock up front so concurrent writers wait on the busy timeout instead of
// failing on lock upgrade.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &Store{queries: &queries{db: db}, db: db}, nil
}

func (s *Store) Driver() string {
	return "sqlite"
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Tx runs fn in a transaction.
func (s *Store) Tx(ctx context.Context, fn func(q store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&queries{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
