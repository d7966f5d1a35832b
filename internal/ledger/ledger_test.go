package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

var frozen = time.Date(2024, 5, 20, 12, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func seedHistory(t *testing.T) []models.Transaction {
	return []models.Transaction{
		{ID: "t1", Title: "Main Canteen Lunch", Amount: dec("85"), Date: date(t, "2024-05-12"), Direction: models.Debit, Category: models.CategoryCanteen},
		{ID: "t2", Title: "Semester Lab Fee", Amount: dec("500"), Date: date(t, "2024-05-10"), Direction: models.Debit, Category: models.CategoryFees},
		{ID: "t3", Title: "Wallet Topup (GPay)", Amount: dec("1000"), Date: date(t, "2024-05-09"), Direction: models.Credit, Category: models.CategoryOther},
		{ID: "t4", Title: "Library Late Return", Amount: dec("20"), Date: date(t, "2024-05-05"), Direction: models.Debit, Category: models.CategoryLibrary},
	}
}

func newSeededStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return frozen }
	}
	s := New(NewMemoryRepository(), cfg, zap.NewNop())
	require.NoError(t, s.Restore(context.Background(), dec("1250.50"), seedHistory(t)))
	return s
}

func TestStore_WorkedScenario(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, Config{})

	r, err := s.RecordDebit(ctx, dec("85"), "Main Canteen Lunch", models.CategoryCanteen)
	require.NoError(t, err)
	assert.True(t, r.Balance.Equal(dec("1165.50")), "balance = %s", r.Balance)
	assert.Equal(t, models.Debit, r.Transaction.Direction)
	assert.True(t, r.Transaction.Amount.Equal(dec("85")))
	assert.Equal(t, "2024-05-20", r.Transaction.Date.String())

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	assert.Equal(t, r.Transaction.ID, txs[0].ID)

	r, err = s.RecordCredit(ctx, dec("1000"))
	require.NoError(t, err)
	assert.True(t, r.Balance.Equal(dec("2165.50")), "balance = %s", r.Balance)
	assert.Equal(t, TopUpTitle, r.Transaction.Title)
	assert.Equal(t, models.CategoryOther, r.Transaction.Category)

	txs, err = s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 6)
	assert.Equal(t, models.Credit, txs[0].Direction)

	require.NoError(t, s.Reconcile(ctx))
}

func TestStore_BalanceConservation(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryRepository(), Config{AllowOverdraft: true}, nil)
	opening := dec("1250.50")
	require.NoError(t, s.Restore(ctx, opening, nil))

	ops := []struct {
		debit  bool
		amount string
	}{
		{true, "0.10"}, {false, "0.20"}, {true, "33.33"}, {true, "1999.99"},
		{false, "0.01"}, {true, "12.34"}, {false, "500"}, {true, "0.07"},
	}

	want := opening
	for _, op := range ops {
		amt := dec(op.amount)
		if op.debit {
			_, err := s.RecordDebit(ctx, amt, "", models.CategoryOther)
			require.NoError(t, err)
			want = want.Sub(amt)
		} else {
			_, err := s.RecordCredit(ctx, amt)
			require.NoError(t, err)
			want = want.Add(amt)
		}
	}

	got, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "balance %s, want %s", got, want)
	assert.NoError(t, s.Reconcile(ctx))
}

func TestStore_HistoryOrdering(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryRepository(), Config{Now: func() time.Time { return frozen }}, nil)
	require.NoError(t, s.Restore(ctx, dec("100"), nil))

	var created []string
	for i := 0; i < 5; i++ {
		r, err := s.RecordCredit(ctx, dec("1"))
		require.NoError(t, err)
		created = append(created, r.Transaction.ID)
	}

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	for i := range created {
		assert.Equal(t, created[len(created)-1-i], txs[i].ID)
	}
}

func TestStore_IdentifiersUnique(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, Config{})

	a, err := s.RecordDebit(ctx, dec("1"), "", models.CategoryCanteen)
	require.NoError(t, err)
	b, err := s.RecordDebit(ctx, dec("1"), "", models.CategoryCanteen)
	require.NoError(t, err)
	assert.NotEqual(t, a.Transaction.ID, b.Transaction.ID)
}

func TestStore_IdempotentRead(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, Config{})

	first, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	second, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// the returned slice is a copy
	first[0].Title = "tampered"
	third, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Main Canteen Lunch", third[0].Title)
}

func TestStore_DefaultTitle(t *testing.T) {
	s := newSeededStore(t, Config{})
	r, err := s.RecordDebit(context.Background(), dec("40"), "  ", models.CategoryLibrary)
	require.NoError(t, err)
	assert.Equal(t, "Campus Library Payment", r.Transaction.Title)
}

func TestStore_RejectsInvalidInputWithoutMutation(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, Config{MaxAmount: dec("100000")})

	long := make([]byte, maxTitleLen+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"zero debit", func() error {
			_, err := s.RecordDebit(ctx, decimal.Zero, "x", models.CategoryCanteen)
			return err
		}, "amount"},
		{"negative debit", func() error {
			_, err := s.RecordDebit(ctx, dec("-5"), "x", models.CategoryCanteen)
			return err
		}, "amount"},
		{"unknown category", func() error {
			_, err := s.RecordDebit(ctx, dec("5"), "x", models.Category("Hostel"))
			return err
		}, "category"},
		{"title too long", func() error {
			_, err := s.RecordDebit(ctx, dec("5"), string(long), models.CategoryFees)
			return err
		}, "title"},
		{"zero credit", func() error {
			_, err := s.RecordCredit(ctx, decimal.Zero)
			return err
		}, "amount"},
		{"credit over limit", func() error {
			_, err := s.RecordCredit(ctx, dec("100000.01"))
			return err
		}, "amount"},
		{"fractional paise", func() error {
			_, err := s.RecordCredit(ctx, dec("1.001"))
			return err
		}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			bal, err := s.Balance(ctx)
			require.NoError(t, err)
			assert.True(t, bal.Equal(dec("1250.50")))
			txs, err := s.ListTransactions(ctx)
			require.NoError(t, err)
			assert.Len(t, txs, 4)
		})
	}
}

func TestStore_BalanceFloor(t *testing.T) {
	ctx := context.Background()

	t.Run("enforced", func(t *testing.T) {
		s := newSeededStore(t, Config{})
		_, err := s.RecordDebit(ctx, dec("1250.51"), "Hostel deposit", models.CategoryFees)
		require.ErrorIs(t, err, models.ErrInsufficientFunds)

		bal, err := s.Balance(ctx)
		require.NoError(t, err)
		assert.True(t, bal.Equal(dec("1250.50")))

		r, err := s.RecordDebit(ctx, dec("1250.50"), "Exact", models.CategoryFees)
		require.NoError(t, err)
		assert.True(t, r.Balance.IsZero())
	})

	t.Run("overdraft allowed", func(t *testing.T) {
		s := newSeededStore(t, Config{AllowOverdraft: true})
		r, err := s.RecordDebit(ctx, dec("1300"), "Hostel deposit", models.CategoryFees)
		require.NoError(t, err)
		assert.True(t, r.Balance.Equal(dec("-49.50")))
	})
}

func TestStore_Summary(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, Config{})

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Count)
	assert.True(t, sum.Balance.Equal(dec("1250.50")))
	assert.True(t, sum.TotalSpent.Equal(dec("605")))
	assert.True(t, sum.TotalToppedUp.Equal(dec("1000")))
	assert.True(t, sum.SpentByCategory[models.CategoryFees].Equal(dec("500")))
	_, hasOther := sum.SpentByCategory[models.CategoryOther]
	assert.False(t, hasOther)
}

func TestStore_Recent(t *testing.T) {
	s := newSeededStore(t, Config{})
	txs, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "t2", txs[1].ID)
}

func TestStore_RestoreChainsRunningBalance(t *testing.T) {
	s := newSeededStore(t, Config{})
	txs, err := s.ListTransactions(context.Background())
	require.NoError(t, err)

	want := []string{"1250.50", "1335.50", "1835.50", "835.50"}
	for i, tx := range txs {
		assert.True(t, tx.BalanceAfter.Equal(dec(want[i])), "%s balance after %s, want %s", tx.ID, tx.BalanceAfter, want[i])
	}
}

func TestStore_RestoreRejectsBadHistory(t *testing.T) {
	s := New(NewMemoryRepository(), Config{}, nil)
	err := s.Restore(context.Background(), dec("10"), []models.Transaction{
		{ID: "bad", Amount: dec("5"), Direction: models.Debit, Category: "Hostel"},
	})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	err = s.Restore(context.Background(), dec("-1"), nil)
	assert.ErrorAs(t, err, &verr)
}

func TestStore_ReconcileDetectsTampering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := New(repo, Config{Now: func() time.Time { return frozen }}, nil)
	require.NoError(t, s.Restore(ctx, dec("1250.50"), seedHistory(t)))

	txs, err := repo.Transactions(ctx)
	require.NoError(t, err)

	// drop a transaction behind the store's back
	require.NoError(t, repo.Load(ctx, dec("1250.50"), append(txs[:1:1], txs[2:]...)))
	err = s.Reconcile(ctx)
	assert.ErrorIs(t, err, models.ErrLedgerInconsistent)

	// duplicate a transaction
	require.NoError(t, repo.Load(ctx, dec("1250.50"), append([]models.Transaction{txs[0]}, txs...)))
	err = s.Reconcile(ctx)
	assert.ErrorIs(t, err, models.ErrLedgerInconsistent)

	// balance drift
	require.NoError(t, repo.Load(ctx, dec("1250.51"), txs))
	assert.True(t, errors.Is(s.Reconcile(ctx), models.ErrLedgerInconsistent))

	require.NoError(t, repo.Load(ctx, dec("1250.50"), txs))
	assert.NoError(t, s.Reconcile(ctx))
}

type failingRepo struct {
	*MemoryRepository
}

func (failingRepo) Append(context.Context, models.Transaction) error {
	return errors.New("disk on fire")
}

func TestStore_AppendFailure(t *testing.T) {
	ctx := context.Background()
	repo := failingRepo{NewMemoryRepository()}
	s := New(repo, Config{}, nil)
	require.NoError(t, s.Restore(ctx, dec("10"), nil))

	_, err := s.RecordCredit(ctx, dec("5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append transaction")

	bal, err := s.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("10")))
}

func TestReceiptAndSummary_JSON(t *testing.T) {
	r := Receipt{
		Transaction: models.Transaction{ID: "t9", Title: "Main Canteen Lunch", Amount: dec("85"), Direction: models.Debit, Category: models.CategoryCanteen, BalanceAfter: dec("1165.5")},
		Balance:     dec("1165.5"),
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"balance":"1165.50"`)
	assert.Contains(t, string(b), `"amount":"85.00"`)

	var back Receipt
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Balance.Equal(dec("1165.5")))
	assert.True(t, back.Transaction.BalanceAfter.Equal(dec("1165.5")))

	sum := Summary{
		Balance:         dec("1250.5"),
		TotalSpent:      dec("605"),
		TotalToppedUp:   dec("1000"),
		SpentByCategory: map[models.Category]decimal.Decimal{models.CategoryFees: dec("500")},
		Count:           4,
	}
	b, err = json.Marshal(sum)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"balance": "1250.50",
		"total_spent": "605.00",
		"total_topped_up": "1000.00",
		"spent_by_category": {"Fees": "500.00"},
		"transaction_count": 4
	}`, string(b))
}
