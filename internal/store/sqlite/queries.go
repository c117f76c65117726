package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

// Legacy rows may lack amount_statement; |amount| stands in for it.
const txColumns = `id, date, description, description_norm, amount,
	COALESCE(amount_statement, ABS(amount), 0), amount_corrected,
	COALESCE(NULLIF(category, ''), 'Uncategorized'), user_note,
	is_expense, is_transfer, unique_key`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(&t.ID, &t.Date, &t.Description, &t.DescriptionNorm, &t.Amount,
		&t.AmountStatement, &t.AmountCorrected, &t.Category, &t.UserNote,
		&t.IsExpense, &t.IsTransfer, &t.UniqueKey)
	if err != nil {
		return model.Transaction{}, err
	}
	t.AmountStatement = t.AmountStatement.Round(2)
	return t, nil
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullAmount(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (q *queries) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (date, description, description_norm, amount,
			amount_statement, amount_corrected, category, user_note,
			is_expense, is_transfer, unique_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (unique_key) DO NOTHING`,
		t.Date, t.Description, t.DescriptionNorm, nullAmount(t.Amount),
		t.AmountStatement.Round(2).InexactFloat64(), nullAmount(t.AmountCorrected),
		t.Category, t.UserNote, t.IsExpense, t.IsTransfer, t.UniqueKey)
	if err != nil {
		return fmt.Errorf("inserting transaction %s: %w", t.UniqueKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting transaction %s: %w", t.UniqueKey, err)
	}
	if n == 0 {
		return store.ErrConflict
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading inserted id: %w", err)
	}
	return nil
}

func (q *queries) FillMissingAmount(ctx context.Context, key string, amount decimal.Decimal) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ? WHERE unique_key = ? AND (amount IS NULL OR amount = 0)`,
		amount.InexactFloat64(), key)
	if err != nil {
		return fmt.Errorf("filling amount for %s: %w", key, err)
	}
	return nil
}

func (q *queries) SignatureExists(ctx context.Context, sig model.Signature) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE date = ? AND description_norm = ?
			  AND ROUND(ABS(COALESCE(amount_statement, amount, 0)), 2) = ROUND(?, 2)
		)`,
		sig.Date, sig.DescriptionNorm, sig.AmountStatement.Round(2).InexactFloat64()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking signature: %w", err)
	}
	return exists, nil
}

func refClause(ref model.Ref) (string, any) {
	if ref.Key != "" {
		return "unique_key = ?", ref.Key
	}
	return "id = ?", ref.ID
}

func (q *queries) GetTransaction(ctx context.Context, ref model.Ref) (model.Transaction, error) {
	where, arg := refClause(ref)
	row := q.db.QueryRowContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE "+where, arg)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction: %w", err)
	}
	return t, nil
}

func (q *queries) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+txColumns+" FROM transactions ORDER BY date, id")
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *queries) UpdateTransaction(ctx context.Context, ref model.Ref, c model.Changes) (int64, error) {
	if c.IsEmpty() || ref.IsZero() {
		return 0, nil
	}

	var sets []string
	var args []any
	if c.AmountCorrected != nil {
		sets = append(sets, "amount_corrected = ?")
		args = append(args, nullAmount(*c.AmountCorrected))
	}
	if c.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *c.Category)
	}
	if c.UserNote != nil {
		sets = append(sets, "user_note = ?")
		args = append(args, *c.UserNote)
	}
	if c.IsExpense != nil {
		sets = append(sets, "is_expense = ?")
		args = append(args, *c.IsExpense)
	}
	if c.IsTransfer != nil {
		sets = append(sets, "is_transfer = ?")
		args = append(args, *c.IsTransfer)
	}

	where, arg := refClause(ref)
	args = append(args, arg)
	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("updating transaction: %w", err)
	}
	return res.RowsAffected()
}

func (q *queries) ReplaceTransaction(ctx context.Context, t *model.Transaction) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE unique_key = ?`, t.UniqueKey); err != nil {
		return fmt.Errorf("removing transaction %s: %w", t.UniqueKey, err)
	}
	return q.InsertTransaction(ctx, t)
}

func (q *queries) DeleteTransactions(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE unique_key IN ("+placeholders(len(keys))+")", stringArgs(keys)...)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}
	return res.RowsAffected()
}

func (q *queries) KeysForIDs(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.db.QueryContext(ctx,
		"SELECT unique_key FROM transactions WHERE id IN ("+placeholders(len(ids))+") ORDER BY id", int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("resolving ids: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (q *queries) RepairAmounts(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = CASE WHEN is_expense THEN -amount_corrected ELSE amount_corrected END
		WHERE amount_corrected > 0
		  AND (amount IS NULL OR amount = 0 OR ROUND(ABS(amount), 2) <> ROUND(amount_corrected, 2))`)
	if err != nil {
		return 0, fmt.Errorf("repairing amounts: %w", err)
	}
	return res.RowsAffected()
}

func (q *queries) AddTombstone(ctx context.Context, key string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tombstones (unique_key, deleted_at) VALUES (?, ?) ON CONFLICT (unique_key) DO NOTHING`,
		key, formatTime(at))
	if err != nil {
		return fmt.Errorf("adding tombstone %s: %w", key, err)
	}
	return nil
}

func (q *queries) TombstoneExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tombstones WHERE unique_key = ?)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking tombstone: %w", err)
	}
	return exists, nil
}

func (q *queries) ListTombstones(ctx context.Context) ([]model.Tombstone, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT unique_key, deleted_at FROM tombstones ORDER BY deleted_at DESC, unique_key`)
	if err != nil {
		return nil, fmt.Errorf("querying tombstones: %w", err)
	}
	defer rows.Close()

	var out []model.Tombstone
	for rows.Next() {
		var ts model.Tombstone
		var at string
		if err := rows.Scan(&ts.UniqueKey, &at); err != nil {
			return nil, fmt.Errorf("scanning tombstone: %w", err)
		}
		ts.DeletedAt = parseTime(at)
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (q *queries) ClearTombstones(ctx context.Context, keys []string) (int64, error) {
	query := "DELETE FROM tombstones"
	if len(keys) > 0 {
		query += " WHERE unique_key IN (" + placeholders(len(keys)) + ")"
	}
	res, err := q.db.ExecContext(ctx, query, stringArgs(keys)...)
	if err != nil {
		return 0, fmt.Errorf("clearing tombstones: %w", err)
	}
	return res.RowsAffected()
}

func (q *queries) AddIgnored(ctx context.Context, d model.IgnoredDuplicate) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO ignored_duplicates (unique_key, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (unique_key) DO NOTHING`,
		d.UniqueKey, d.Payload, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("logging ignored row %s: %w", d.UniqueKey, err)
	}
	return nil
}

func scanIgnored(row scanner) (model.IgnoredDuplicate, error) {
	var d model.IgnoredDuplicate
	var at string
	if err := row.Scan(&d.ID, &d.UniqueKey, &d.Payload, &at); err != nil {
		return model.IgnoredDuplicate{}, err
	}
	d.CreatedAt = parseTime(at)
	return d, nil
}

func (q *queries) ListIgnored(ctx context.Context) ([]model.IgnoredDuplicate, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, unique_key, payload, created_at FROM ignored_duplicates ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying ignored rows: %w", err)
	}
	defer rows.Close()

	var out []model.IgnoredDuplicate
	for rows.Next() {
		d, err := scanIgnored(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ignored row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q *queries) GetIgnored(ctx context.Context, id int64) (model.IgnoredDuplicate, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, unique_key, payload, created_at FROM ignored_duplicates WHERE id = ?`, id)
	d, err := scanIgnored(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.IgnoredDuplicate{}, store.ErrNotFound
	}
	if err != nil {
		return model.IgnoredDuplicate{}, fmt.Errorf("loading ignored row %d: %w", id, err)
	}
	return d, nil
}

func (q *queries) DeleteIgnored(ctx context.Context, ids []int64) (int64, error) {
	query := "DELETE FROM ignored_duplicates"
	if len(ids) > 0 {
		query += " WHERE id IN (" + placeholders(len(ids)) + ")"
	}
	res, err := q.db.ExecContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return 0, fmt.Errorf("deleting ignored rows: %w", err)
	}
	return res.RowsAffected()
}

func (q *queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (q *queries) ReplaceCategories(ctx context.Context, names []string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clearing categories: %w", err)
	}
	for _, n := range names {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, n); err != nil {
			return fmt.Errorf("inserting category %q: %w", n, err)
		}
	}
	return nil
}

func (q *queries) RenameCategory(ctx context.Context, oldName, newName string) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, []any{newName}},
		{`DELETE FROM categories WHERE name = ?`, []any{oldName}},
		{`UPDATE transactions SET category = ? WHERE category = ?`, []any{newName, oldName}},
		{`UPDATE category_map SET category = ? WHERE category = ?`, []any{newName, oldName}},
	}
	for _, st := range stmts {
		if _, err := q.db.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("renaming category %q: %w", oldName, err)
		}
	}
	return nil
}

func (q *queries) UpsertCategoryMap(ctx context.Context, entries []model.CategoryMapEntry) (int64, error) {
	var n int64
	for _, e := range entries {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO category_map (description_norm, category) VALUES (?, ?)
			ON CONFLICT (description_norm) DO UPDATE SET category = excluded.category`,
			e.DescriptionNorm, e.Category)
		if err != nil {
			return n, fmt.Errorf("upserting category map %q: %w", e.DescriptionNorm, err)
		}
		n++
	}
	return n, nil
}

func (q *queries) LookupCategoryMap(ctx context.Context, norms []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(norms) == 0 {
		return out, nil
	}
	rows, err := q.db.QueryContext(ctx,
		"SELECT description_norm, category FROM category_map WHERE description_norm IN ("+placeholders(len(norms))+")",
		stringArgs(norms)...)
	if err != nil {
		return nil, fmt.Errorf("querying category map: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var norm, cat string
		if err := rows.Scan(&norm, &cat); err != nil {
			return nil, fmt.Errorf("scanning category map: %w", err)
		}
		out[norm] = cat
	}
	return out, rows.Err()
}

func (q *queries) ListCategoryMap(ctx context.Context) ([]model.CategoryMapEntry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT description_norm, category FROM category_map ORDER BY description_norm`)
	if err != nil {
		return nil, fmt.Errorf("querying category map: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryMapEntry
	for rows.Next() {
		var e model.CategoryMapEntry
		if err := rows.Scan(&e.DescriptionNorm, &e.Category); err != nil {
			return nil, fmt.Errorf("scanning category map: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *queries) CategoryHistory(ctx context.Context, norms []string, exclude string) ([]model.CategoryCount, error) {
	if len(norms) == 0 {
		return nil, nil
	}
	args := append(stringArgs(norms), exclude)
	rows, err := q.db.QueryContext(ctx, `
		SELECT description_norm, category, COUNT(*)
		FROM transactions
		WHERE description_norm IN (`+placeholders(len(norms))+`)
		  AND category IS NOT NULL AND category <> '' AND category <> ?
		GROUP BY description_norm, category
		ORDER BY description_norm, category`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying category history: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.DescriptionNorm, &c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning category history: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
