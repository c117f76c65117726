package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cartola/internal/model"
)

type transactionRow struct {
	ID              int64               `gorm:"primaryKey;autoIncrement"`
	Date            string              `gorm:"type:text;not null;default:'';index:idx_transactions_signature,priority:1"`
	Description     string              `gorm:"type:text;not null;default:''"`
	DescriptionNorm string              `gorm:"type:text;not null;default:'';index:idx_transactions_signature,priority:2;index:idx_transactions_norm_category,priority:1"`
	Amount          decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	AmountStatement decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	AmountCorrected decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	Category        string              `gorm:"type:text;not null;default:'Uncategorized';index:idx_transactions_norm_category,priority:2"`
	UserNote        string              `gorm:"type:text;not null;default:''"`
	IsExpense       bool                `gorm:"not null;default:false"`
	IsTransfer      bool                `gorm:"not null;default:false"`
	UniqueKey       string              `gorm:"type:text;not null;uniqueIndex"`
}

func (transactionRow) TableName() string { return "transactions" }

func newTransactionRow(t *model.Transaction) transactionRow {
	return transactionRow{
		Date:            t.Date,
		Description:     t.Description,
		DescriptionNorm: t.DescriptionNorm,
		Amount:          t.Amount,
		AmountStatement: decimal.NullDecimal{Decimal: t.AmountStatement.Round(2), Valid: true},
		AmountCorrected: t.AmountCorrected,
		Category:        t.Category,
		UserNote:        t.UserNote,
		IsExpense:       t.IsExpense,
		IsTransfer:      t.IsTransfer,
		UniqueKey:       t.UniqueKey,
	}
}

func (r transactionRow) toModel() model.Transaction {
	// Legacy rows may lack amount_statement; |amount| stands in for it.
	stmt := r.AmountStatement.Decimal
	if !r.AmountStatement.Valid {
		stmt = r.Amount.Decimal.Abs()
	}
	cat := r.Category
	if cat == "" {
		cat = model.Uncategorized
	}
	return model.Transaction{
		ID:              r.ID,
		Date:            r.Date,
		Description:     r.Description,
		DescriptionNorm: r.DescriptionNorm,
		Amount:          r.Amount,
		AmountStatement: stmt.Round(2),
		AmountCorrected: r.AmountCorrected,
		Category:        cat,
		UserNote:        r.UserNote,
		IsExpense:       r.IsExpense,
		IsTransfer:      r.IsTransfer,
		UniqueKey:       r.UniqueKey,
	}
}

type tombstoneRow struct {
	UniqueKey string    `gorm:"primaryKey;type:text"`
	DeletedAt time.Time `gorm:"not null"`
}

func (tombstoneRow) TableName() string { return "tombstones" }

type ignoredRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UniqueKey string    `gorm:"type:text;not null;uniqueIndex"`
	Payload   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ignoredRow) TableName() string { return "ignored_duplicates" }

func (r ignoredRow) toModel() model.IgnoredDuplicate {
	return model.IgnoredDuplicate{ID: r.ID, UniqueKey: r.UniqueKey, Payload: r.Payload, CreatedAt: r.CreatedAt}
}

type categoryRow struct {
	Name string `gorm:"primaryKey;type:text"`
}

func (categoryRow) TableName() string { return "categories" }

type categoryMapRow struct {
	DescriptionNorm string `gorm:"primaryKey;type:text"`
	Category        string `gorm:"type:text;not null"`
}

func (categoryMapRow) TableName() string { return "category_map" }
