package vault

import (
	"context"
	"slices"
	"sync"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

// Repository holds the document collection, newest first.
type Repository interface {
	Prepend(ctx context.Context, doc models.Document) error
	Documents(ctx context.Context) ([]models.Document, error)
	Load(ctx context.Context, docs []models.Document) error
}

type MemoryRepository struct {
	mu   sync.RWMutex
	docs []models.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Prepend(_ context.Context, doc models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = slices.Insert(r.docs, 0, doc)
	return nil
}

func (r *MemoryRepository) Documents(_ context.Context) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.docs), nil
}

func (r *MemoryRepository) Load(_ context.Context, docs []models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = slices.Clone(docs)
	return nil
}
