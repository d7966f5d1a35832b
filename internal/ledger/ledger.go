// Package ledger is the single source of truth for the student's wallet
// balance and transaction history within a session.
//
// Every mutation goes through Store, which validates input before touching
// the repository, assigns the id and date, and records the running balance
// on the transaction so the history can be reconciled at any time.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ids"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/metrics"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const (
	TopUpTitle  = "Wallet Topup (GPay)"
	maxTitleLen = 120
)

type Config struct {
	// AllowOverdraft lets debits take the balance below zero.
	AllowOverdraft bool
	// MaxAmount caps a single transaction. Zero means no cap.
	MaxAmount decimal.Decimal
	Now       func() time.Time
}

// Receipt is the outcome of a ledger mutation.
type Receipt struct {
	Transaction models.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance" swaggertype:"string"`
}

type Summary struct {
	Balance         decimal.Decimal                     `json:"balance" swaggertype:"string"`
	TotalSpent      decimal.Decimal                     `json:"total_spent" swaggertype:"string"`
	TotalToppedUp   decimal.Decimal                     `json:"total_topped_up" swaggertype:"string"`
	SpentByCategory map[models.Category]decimal.Decimal `json:"spent_by_category" swaggertype:"object,string"`
	Count           int                                 `json:"transaction_count"`
}

func (r Receipt) MarshalJSON() ([]byte, error) {
	type plain Receipt
	return json.Marshal(struct {
		plain
		Balance string `json:"balance"`
	}{plain(r), r.Balance.StringFixed(2)})
}

// MarshalJSON writes every amount with two decimal places.
func (s Summary) MarshalJSON() ([]byte, error) {
	byCategory := make(map[models.Category]string, len(s.SpentByCategory))
	for c, amt := range s.SpentByCategory {
		byCategory[c] = amt.StringFixed(2)
	}
	type plain Summary
	return json.Marshal(struct {
		plain
		Balance         string                     `json:"balance"`
		TotalSpent      string                     `json:"total_spent"`
		TotalToppedUp   string                     `json:"total_topped_up"`
		SpentByCategory map[models.Category]string `json:"spent_by_category"`
	}{plain(s), s.Balance.StringFixed(2), s.TotalSpent.StringFixed(2), s.TotalToppedUp.StringFixed(2), byCategory})
}

type Store struct {
	repo Repository
	cfg  Config
	ids  *ids.Generator
	log  *zap.Logger

	// mu serializes read-check-append sequences against the repository.
	mu sync.Mutex
}

func New(repo Repository, cfg Config, log *zap.Logger) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo: repo,
		cfg:  cfg,
		ids:  ids.NewGenerator("t"),
		log:  log.Named("ledger"),
	}
}

// RecordDebit charges amount to the wallet. An empty title becomes
// "Campus <category> Payment".
func (s *Store) RecordDebit(ctx context.Context, amount decimal.Decimal, title string, category models.Category) (Receipt, error) {
	if err := models.ValidateAmount(amount, s.cfg.MaxAmount); err != nil {
		return Receipt{}, s.reject("invalid_amount", err)
	}
	if !category.Valid() {
		return Receipt{}, s.reject("invalid_category", models.Invalid("category", "%q is not one of Canteen, Library, Fees, Other", category))
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("Campus %s Payment", category)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return Receipt{}, s.reject("invalid_title", models.Invalid("title", "longer than %d characters", maxTitleLen))
	}

	return s.record(ctx, models.Debit, amount, title, category)
}

// RecordCredit tops the wallet up by amount.
func (s *Store) RecordCredit(ctx context.Context, amount decimal.Decimal) (Receipt, error) {
	if err := models.ValidateAmount(amount, s.cfg.MaxAmount); err != nil {
		return Receipt{}, s.reject("invalid_amount", err)
	}
	return s.record(ctx, models.Credit, amount, TopUpTitle, models.CategoryOther)
}

func (s *Store) record(ctx context.Context, dir models.Direction, amount decimal.Decimal, title string, category models.Category) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.repo.Balance(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("read balance: %w", err)
	}

	next := balance.Add(amount)
	if dir == models.Debit {
		next = balance.Sub(amount)
	}
	if next.IsNegative() && !s.cfg.AllowOverdraft {
		return Receipt{}, s.reject("insufficient_funds",
			fmt.Errorf("%w: balance %s, debit %s", models.ErrInsufficientFunds, balance.StringFixed(2), amount.StringFixed(2)))
	}

	now := s.cfg.Now()
	tx := models.Transaction{
		ID:           s.ids.Next(now),
		Title:        title,
		Amount:       amount,
		Date:         models.DateOf(now),
		Direction:    dir,
		Category:     category,
		BalanceAfter: next,
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return Receipt{}, fmt.Errorf("append transaction: %w", err)
	}

	metrics.RecordTransaction(string(dir), string(category))
	s.log.Info("transaction recorded",
		zap.String("id", tx.ID),
		zap.String("type", string(dir)),
		zap.String("category", string(category)),
		zap.Stringer("amount", amount),
		zap.Stringer("balance", next),
	)

	return Receipt{Transaction: tx, Balance: next}, nil
}

func (s *Store) reject(reason string, err error) error {
	metrics.RecordRejection(reason)
	s.log.Debug("ledger operation rejected", zap.String("reason", reason), zap.Error(err))
	return err
}

// ListTransactions returns a copy of the history, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.repo.Transactions(ctx)
}

// Recent returns at most n of the newest transactions.
func (s *Store) Recent(ctx context.Context, n int) ([]models.Transaction, error) {
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(txs) > n {
		txs = txs[:n]
	}
	return txs, nil
}

func (s *Store) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.Balance(ctx)
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.repo.Balance(ctx)
	if err != nil {
		return Summary{}, err
	}
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Balance:         balance,
		SpentByCategory: make(map[models.Category]decimal.Decimal),
		Count:           len(txs),
	}
	for _, tx := range txs {
		if tx.Direction == models.Debit {
			sum.TotalSpent = sum.TotalSpent.Add(tx.Amount)
			sum.SpentByCategory[tx.Category] = sum.SpentByCategory[tx.Category].Add(tx.Amount)
			continue
		}
		sum.TotalToppedUp = sum.TotalToppedUp.Add(tx.Amount)
	}
	return sum, nil
}

// Restore replaces the session state with balance and a newest-first
// history, filling in each transaction's running balance backwards from
// balance. Used when a session is seeded.
func (s *Store) Restore(ctx context.Context, balance decimal.Decimal, history []models.Transaction) error {
	if balance.IsNegative() && !s.cfg.AllowOverdraft {
		return models.Invalid("balance", "opening balance %s is negative", balance)
	}

	chained := make([]models.Transaction, len(history))
	after := balance
	for i, tx := range history {
		if err := models.ValidateAmount(tx.Amount, decimal.Zero); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if !tx.Category.Valid() {
			return fmt.Errorf("transaction %s: %w", tx.ID, models.Invalid("category", "%q", tx.Category))
		}
		if tx.Direction != models.Debit && tx.Direction != models.Credit {
			return fmt.Errorf("transaction %s: %w", tx.ID, models.Invalid("type", "%q", tx.Direction))
		}
		tx.BalanceAfter = after
		chained[i] = tx
		after = after.Sub(tx.Effect())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Load(ctx, balance, chained); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	s.log.Info("ledger restored", zap.Stringer("balance", balance), zap.Int("transactions", len(chained)))
	return nil
}

// Reconcile checks that the balance matches the newest running balance and
// that every transaction moved the running balance by exactly its amount.
func (s *Store) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.repo.Balance(ctx)
	if err != nil {
		return err
	}
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}

	var errs []error
	if !txs[0].BalanceAfter.Equal(balance) {
		errs = append(errs, fmt.Errorf("balance %s does not match newest running balance %s", balance, txs[0].BalanceAfter))
	}
	seen := make(map[string]bool, len(txs))
	for i, tx := range txs {
		if seen[tx.ID] {
			errs = append(errs, fmt.Errorf("duplicate transaction %s", tx.ID))
		}
		seen[tx.ID] = true
		if i+1 == len(txs) {
			break
		}
		want := txs[i+1].BalanceAfter.Add(tx.Effect())
		if !tx.BalanceAfter.Equal(want) {
			errs = append(errs, fmt.Errorf("transaction %s: running balance %s, want %s", tx.ID, tx.BalanceAfter, want))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", models.ErrLedgerInconsistent, errors.Join(errs...))
	}
	return nil
}
