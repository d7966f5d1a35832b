package ledger

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

// Repository holds the wallet balance and its transaction history.
type Repository interface {
	// Append stores tx as the newest transaction and sets the balance to
	// tx.BalanceAfter in the same step.
	Append(ctx context.Context, tx models.Transaction) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	// Transactions returns the history newest first.
	Transactions(ctx context.Context) ([]models.Transaction, error)
	// Load replaces all state. history is newest first.
	Load(ctx context.Context, balance decimal.Decimal, history []models.Transaction) error
}

type MemoryRepository struct {
	mu      sync.RWMutex
	balance decimal.Decimal
	txs     []models.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(_ context.Context, tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.txs = slices.Insert(r.txs, 0, tx)
	r.balance = tx.BalanceAfter
	return nil
}

func (r *MemoryRepository) Balance(_ context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balance, nil
}

func (r *MemoryRepository) Transactions(_ context.Context) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.txs), nil
}

func (r *MemoryRepository) Load(_ context.Context, balance decimal.Decimal, history []models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.balance = balance
	r.txs = slices.Clone(history)
	return nil
}
