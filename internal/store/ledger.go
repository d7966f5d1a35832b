package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const walletID = 1

type walletRow struct {
	ID        uint            `gorm:"primaryKey"`
	Balance   decimal.Decimal `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (walletRow) TableName() string { return "wallet" }

type transactionRow struct {
	gorm.Model
	TxID         string          `gorm:"uniqueIndex;size:64;not null"`
	Title        string          `gorm:"size:120;not null"`
	Amount       decimal.Decimal `gorm:"type:text;not null"`
	Date         string          `gorm:"size:10;not null"`
	Direction    string          `gorm:"size:6;not null"`
	Category     string          `gorm:"size:16;index;not null"`
	BalanceAfter decimal.Decimal `gorm:"type:text;not null"`
}

func (transactionRow) TableName() string { return "transactions" }

func toTransactionRow(tx models.Transaction) transactionRow {
	return transactionRow{
		TxID:         tx.ID,
		Title:        tx.Title,
		Amount:       tx.Amount,
		Date:         tx.Date.String(),
		Direction:    string(tx.Direction),
		Category:     string(tx.Category),
		BalanceAfter: tx.BalanceAfter,
	}
}

func (r transactionRow) model() (models.Transaction, error) {
	var d models.Date
	if err := d.UnmarshalText([]byte(r.Date)); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", r.TxID, err)
	}
	return models.Transaction{
		ID:           r.TxID,
		Title:        r.Title,
		Amount:       r.Amount,
		Date:         d,
		Direction:    models.Direction(r.Direction),
		Category:     models.Category(r.Category),
		BalanceAfter: r.BalanceAfter,
	}, nil
}

// LedgerRepository implements ledger.Repository with gorm.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func putBalance(tx *gorm.DB, balance decimal.Decimal) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&walletRow{ID: walletID, Balance: balance}).Error
}

func (r *LedgerRepository) Append(ctx context.Context, t models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toTransactionRow(t)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return putBalance(tx, t.BalanceAfter)
	})
}

func (r *LedgerRepository) Balance(ctx context.Context) (decimal.Decimal, error) {
	var w walletRow
	err := r.db.WithContext(ctx).First(&w, walletID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (r *LedgerRepository) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var rows []transactionRow
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	txs := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.model()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// Load replaces the wallet. Rows are inserted oldest first so the
// autoincrement key preserves history order.
func (r *LedgerRepository) Load(ctx context.Context, balance decimal.Decimal, history []models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&transactionRow{}).Error; err != nil {
			return err
		}
		for i := len(history) - 1; i >= 0; i-- {
			row := toTransactionRow(history[i])
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return putBalance(tx, balance)
	})
}
