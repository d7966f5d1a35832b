// Package session ties the student profile to the ledger and vault of a
// single session and renders the read-only views built from them.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ledger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

const (
	DefaultValidThru = "JUN 2028"
	recentLimit      = 4
)

type Session struct {
	Ledger *ledger.Store
	Vault  *vault.Store

	validThru string

	mu      sync.RWMutex
	student models.Student
}

func New(l *ledger.Store, v *vault.Store, validThru string) *Session {
	if validThru == "" {
		validThru = DefaultValidThru
	}
	return &Session{Ledger: l, Vault: v, validThru: validThru}
}

// SetStudent replaces the profile. The balance field is ignored: the
// ledger owns it.
func (s *Session) SetStudent(st models.Student) {
	st.Balance = decimal.Zero
	s.mu.Lock()
	defer s.mu.Unlock()
	s.student = st
}

// Profile returns the student with the ledger's current balance.
func (s *Session) Profile(ctx context.Context) (models.Student, error) {
	s.mu.RLock()
	st := s.student
	s.mu.RUnlock()

	bal, err := s.Ledger.Balance(ctx)
	if err != nil {
		return models.Student{}, fmt.Errorf("read balance: %w", err)
	}
	st.Balance = bal
	return st, nil
}

type Card struct {
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
	Course     string `json:"course"`
	Batch      string `json:"batch"`
	College    string `json:"college"`
	ImageURL   string `json:"image_url"`
	AccessCode string `json:"access_code"`
	ValidThru  string `json:"valid_thru"`
}

func (s *Session) Card(ctx context.Context) (Card, error) {
	st, err := s.Profile(ctx)
	if err != nil {
		return Card{}, err
	}
	return Card{
		Name:       st.Name,
		RollNo:     st.RollNo,
		Course:     st.Course,
		Batch:      st.Batch,
		College:    st.College,
		ImageURL:   st.ImageURL,
		AccessCode: st.ID,
		ValidThru:  s.validThru,
	}, nil
}

type Dashboard struct {
	Student            models.Student       `json:"student"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	Spending           ledger.Summary       `json:"spending"`
	DocumentCount      int                  `json:"document_count"`
	VerifiedDocuments  int                  `json:"verified_documents"`
}

func (s *Session) Dashboard(ctx context.Context) (Dashboard, error) {
	st, err := s.Profile(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.Ledger.Recent(ctx, recentLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("recent transactions: %w", err)
	}
	sum, err := s.Ledger.Summary(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("summary: %w", err)
	}
	docs, err := s.Vault.ListDocuments(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("documents: %w", err)
	}

	d := Dashboard{
		Student:            st,
		RecentTransactions: recent,
		Spending:           sum,
		DocumentCount:      len(docs),
	}
	for _, doc := range docs {
		if doc.Status == models.StatusVerified {
			d.VerifiedDocuments++
		}
	}
	return d, nil
}
