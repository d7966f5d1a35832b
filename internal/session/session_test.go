package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/gateway"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ledger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC) }

	l := ledger.New(ledger.NewMemoryRepository(), ledger.Config{Now: now}, nil)
	day, err := models.ParseDate("2024-05-12")
	require.NoError(t, err)
	require.NoError(t, l.Restore(ctx, decimal.RequireFromString("1250.50"), []models.Transaction{
		{ID: "t1", Title: "Main Canteen Lunch", Amount: decimal.NewFromInt(85), Date: day, Direction: models.Debit, Category: models.CategoryCanteen},
	}))

	v := vault.New(vault.NewMemoryRepository(), &gateway.Stub{Summary: "ok"}, vault.Config{Now: now}, nil)
	require.NoError(t, v.Restore(ctx, []models.Document{
		{ID: "d1", Name: "Semester 4 Marksheet", Type: vault.TypeAcademic, Status: models.StatusVerified},
		{ID: "d2", Name: "Fee Receipt", Type: vault.TypeAcademic, Status: models.StatusPending},
	}))

	s := New(l, v, "")
	s.SetStudent(models.Student{
		ID:       "STU-2024-001",
		Name:     "Anita",
		Course:   "BE Computer Engineering",
		Batch:    "2021-2025",
		College:  "Shri Swaminarayan Institute of Technology",
		Balance:  decimal.NewFromInt(999999),
		RollNo:   "CE-107054",
		ImageURL: "https://picsum.photos/200/200?random=1",
	})
	return s
}

func TestProfile_LiveBalance(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	st, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(decimal.RequireFromString("1250.50")))

	_, err = s.Ledger.RecordDebit(ctx, decimal.NewFromInt(50), "", models.CategoryLibrary)
	require.NoError(t, err)

	st, err = s.Profile(ctx)
	require.NoError(t, err)
	assert.True(t, st.Balance.Equal(decimal.RequireFromString("1200.50")))
}

func TestCard(t *testing.T) {
	c, err := newSession(t).Card(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "STU-2024-001", c.AccessCode)
	assert.Equal(t, DefaultValidThru, c.ValidThru)
	assert.Equal(t, "CE-107054", c.RollNo)
	assert.Equal(t, "2021-2025", c.Batch)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	for i := 0; i < 5; i++ {
		_, err := s.Ledger.RecordCredit(ctx, decimal.NewFromInt(10))
		require.NoError(t, err)
	}

	d, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, d.RecentTransactions, recentLimit)
	assert.Equal(t, models.Credit, d.RecentTransactions[0].Direction)
	assert.Equal(t, 6, d.Spending.Count)
	assert.True(t, d.Spending.TotalToppedUp.Equal(decimal.NewFromInt(50)))
	assert.True(t, d.Student.Balance.Equal(decimal.RequireFromString("1300.50")))
	assert.Equal(t, 2, d.DocumentCount)
	assert.Equal(t, 1, d.VerifiedDocuments)
}
