package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleared-dev/cartola/internal/model"
	"github.com/cleared-dev/cartola/internal/store"
)

type queries struct {
	db *gorm.DB
}

func (q *queries) conn(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx)
}

func (q *queries) byRef(ctx context.Context, ref model.Ref) *gorm.DB {
	if ref.Key != "" {
		return q.conn(ctx).Where("unique_key = ?", ref.Key)
	}
	return q.conn(ctx).Where("id = ?", ref.ID)
}

func (q *queries) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	row := newTransactionRow(t)
	res := q.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "unique_key"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return fmt.Errorf("inserting transaction %s: %w", t.UniqueKey, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrConflict
	}
	t.ID = row.ID
	return nil
}

func (q *queries) FillMissingAmount(ctx context.Context, key string, amount decimal.Decimal) error {
	err := q.conn(ctx).Model(&transactionRow{}).
		Where("unique_key = ? AND (amount IS NULL OR amount = 0)", key).
		Update("amount", amount).Error
	if err != nil {
		return fmt.Errorf("filling amount for %s: %w", key, err)
	}
	return nil
}

func (q *queries) SignatureExists(ctx context.Context, sig model.Signature) (bool, error) {
	var exists bool
	err := q.conn(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE date = ? AND description_norm = ?
			  AND ROUND(ABS(COALESCE(amount_statement, amount, 0)), 2) = ?
		)`, sig.Date, sig.DescriptionNorm, sig.AmountStatement.Round(2)).Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("checking signature: %w", err)
	}
	return exists, nil
}

func (q *queries) GetTransaction(ctx context.Context, ref model.Ref) (model.Transaction, error) {
	var row transactionRow
	err := q.byRef(ctx, ref).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction: %w", err)
	}
	return row.toModel(), nil
}

func (q *queries) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var rows []transactionRow
	if err := q.conn(ctx).Order("date, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	out := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (q *queries) UpdateTransaction(ctx context.Context, ref model.Ref, c model.Changes) (int64, error) {
	if c.IsEmpty() || ref.IsZero() {
		return 0, nil
	}

	updates := map[string]any{}
	if c.AmountCorrected != nil {
		updates["amount_corrected"] = *c.AmountCorrected
	}
	if c.Category != nil {
		updates["category"] = *c.Category
	}
	if c.UserNote != nil {
		updates["user_note"] = *c.UserNote
	}
	if c.IsExpense != nil {
		updates["is_expense"] = *c.IsExpense
	}
	if c.IsTransfer != nil {
		updates["is_transfer"] = *c.IsTransfer
	}

	res := q.byRef(ctx, ref).Model(&transactionRow{}).Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("updating transaction: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (q *queries) ReplaceTransaction(ctx context.Context, t *model.Transaction) error {
	err := q.conn(ctx).Where("unique_key = ?", t.UniqueKey).Delete(&transactionRow{}).Error
	if err != nil {
		return fmt.Errorf("removing transaction %s: %w", t.UniqueKey, err)
	}
	return q.InsertTransaction(ctx, t)
}

func (q *queries) DeleteTransactions(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := q.conn(ctx).Where("unique_key IN ?", keys).Delete(&transactionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (q *queries) KeysForIDs(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var keys []string
	err := q.conn(ctx).Model(&transactionRow{}).
		Where("id IN ?", ids).Order("id").Pluck("unique_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("resolving ids: %w", err)
	}
	return keys, nil
}

func (q *queries) RepairAmounts(ctx context.Context) (int64, error) {
	res := q.conn(ctx).Exec(`
		UPDATE transactions
		SET amount = CASE WHEN is_expense THEN -amount_corrected ELSE amount_corrected END
		WHERE amount_corrected > 0
		  AND (amount IS NULL OR amount = 0 OR ABS(amount) <> amount_corrected)`)
	if res.Error != nil {
		return 0, fmt.Errorf("repairing amounts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (q *queries) AddTombstone(ctx context.Context, key string, at time.Time) error {
	err := q.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tombstoneRow{UniqueKey: key, DeletedAt: at.UTC()}).Error
	if err != nil {
		return fmt.Errorf("adding tombstone %s: %w", key, err)
	}
	return nil
}

func (q *queries) TombstoneExists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := q.conn(ctx).Model(&tombstoneRow{}).Where("unique_key = ?", key).Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking tombstone: %w", err)
	}
	return n > 0, nil
}

func (q *queries) ListTombstones(ctx context.Context) ([]model.Tombstone, error) {
	var rows []tombstoneRow
	if err := q.conn(ctx).Order("deleted_at DESC, unique_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying tombstones: %w", err)
	}
	out := make([]model.Tombstone, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Tombstone{UniqueKey: r.UniqueKey, DeletedAt: r.DeletedAt})
	}
	return out, nil
}

func (q *queries) ClearTombstones(ctx context.Context, keys []string) (int64, error) {
	db := q.conn(ctx)
	if len(keys) > 0 {
		db = db.Where("unique_key IN ?", keys)
	} else {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := db.Delete(&tombstoneRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing tombstones: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (q *queries) AddIgnored(ctx context.Context, d model.IgnoredDuplicate) error {
	row := ignoredRow{UniqueKey: d.UniqueKey, Payload: d.Payload, CreatedAt: d.CreatedAt.UTC()}
	err := q.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "unique_key"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("logging ignored row %s: %w", d.UniqueKey, err)
	}
	return nil
}

func (q *queries) ListIgnored(ctx context.Context) ([]model.IgnoredDuplicate, error) {
	var rows []ignoredRow
	if err := q.conn(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying ignored rows: %w", err)
	}
	out := make([]model.IgnoredDuplicate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (q *queries) GetIgnored(ctx context.Context, id int64) (model.IgnoredDuplicate, error) {
	var row ignoredRow
	err := q.conn(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.IgnoredDuplicate{}, store.ErrNotFound
	}
	if err != nil {
		return model.IgnoredDuplicate{}, fmt.Errorf("loading ignored row %d: %w", id, err)
	}
	return row.toModel(), nil
}

func (q *queries) DeleteIgnored(ctx context.Context, ids []int64) (int64, error) {
	db := q.conn(ctx)
	if len(ids) > 0 {
		db = db.Where("id IN ?", ids)
	} else {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := db.Delete(&ignoredRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting ignored rows: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (q *queries) ListCategories(ctx context.Context) ([]string, error) {
	var names []string
	if err := q.conn(ctx).Model(&categoryRow{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return names, nil
}

func (q *queries) ReplaceCategories(ctx context.Context, names []string) error {
	err := q.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&categoryRow{}).Error
	if err != nil {
		return fmt.Errorf("clearing categories: %w", err)
	}
	for _, n := range names {
		err := q.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&categoryRow{Name: n}).Error
		if err != nil {
			return fmt.Errorf("inserting category %q: %w", n, err)
		}
	}
	return nil
}

func (q *queries) RenameCategory(ctx context.Context, oldName, newName string) error {
	db := q.conn(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categoryRow{Name: newName}).Error; err != nil {
		return fmt.Errorf("renaming category %q: %w", oldName, err)
	}
	if err := db.Where("name = ?", oldName).Delete(&categoryRow{}).Error; err != nil {
		return fmt.Errorf("renaming category %q: %w", oldName, err)
	}
	if err := db.Model(&transactionRow{}).Where("category = ?", oldName).Update("category", newName).Error; err != nil {
		return fmt.Errorf("renaming category %q in transactions: %w", oldName, err)
	}
	if err := db.Model(&categoryMapRow{}).Where("category = ?", oldName).Update("category", newName).Error; err != nil {
		return fmt.Errorf("renaming category %q in category map: %w", oldName, err)
	}
	return nil
}

func (q *queries) UpsertCategoryMap(ctx context.Context, entries []model.CategoryMapEntry) (int64, error) {
	var n int64
	for _, e := range entries {
		err := q.conn(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "description_norm"}},
				DoUpdates: clause.AssignmentColumns([]string{"category"}),
			}).
			Create(&categoryMapRow{DescriptionNorm: e.DescriptionNorm, Category: e.Category}).Error
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
	var rows []categoryMapRow
	if err := q.conn(ctx).Where("description_norm IN ?", norms).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying category map: %w", err)
	}
	for _, r := range rows {
		out[r.DescriptionNorm] = r.Category
	}
	return out, nil
}

func (q *queries) ListCategoryMap(ctx context.Context) ([]model.CategoryMapEntry, error) {
	var rows []categoryMapRow
	if err := q.conn(ctx).Order("description_norm").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying category map: %w", err)
	}
	out := make([]model.CategoryMapEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.CategoryMapEntry{DescriptionNorm: r.DescriptionNorm, Category: r.Category})
	}
	return out, nil
}

func (q *queries) CategoryHistory(ctx context.Context, norms []string, exclude string) ([]model.CategoryCount, error) {
	if len(norms) == 0 {
		return nil, nil
	}
	var out []model.CategoryCount
	err := q.conn(ctx).Raw(`
		SELECT description_norm, category, COUNT(*) AS count
		FROM transactions
		WHERE description_norm IN ?
		  AND category IS NOT NULL AND category <> '' AND category <> ?
		GROUP BY description_norm, category
		ORDER BY description_norm, category`, norms, exclude).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("querying category history: %w", err)
	}
	return out, nil
}
