package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

type documentRow struct {
	gorm.Model
	DocID     string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	Type      string `gorm:"size:16;not null"`
	MimeType  string `gorm:"size:127"`
	SizeBytes int64
	Date      string `gorm:"size:10"`
	Status    string `gorm:"size:16;index;not null"`
	Summary   string
}

func (documentRow) TableName() string { return "documents" }

func toDocumentRow(d models.Document) documentRow {
	return documentRow{
		DocID:     d.ID,
		Name:      d.Name,
		Type:      d.Type,
		MimeType:  d.MimeType,
		SizeBytes: d.SizeBytes,
		Date:      d.Date.String(),
		Status:    string(d.Status),
		Summary:   d.Summary,
	}
}

func (r documentRow) model() (models.Document, error) {
	var d models.Date
	if err := d.UnmarshalText([]byte(r.Date)); err != nil {
		return models.Document{}, fmt.Errorf("document %s: %w", r.DocID, err)
	}
	return models.Document{
		ID:        r.DocID,
		Name:      r.Name,
		Type:      r.Type,
		MimeType:  r.MimeType,
		SizeBytes: r.SizeBytes,
		Date:      d,
		Status:    models.DocumentStatus(r.Status),
		Summary:   r.Summary,
	}, nil
}

// DocumentRepository implements vault.Repository with gorm.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Prepend(ctx context.Context, d models.Document) error {
	row := toDocumentRow(d)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *DocumentRepository) Documents(ctx context.Context) ([]models.Document, error) {
	var rows []documentRow
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		d, err := row.model()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *DocumentRepository) Load(ctx context.Context, docs []models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&documentRow{}).Error; err != nil {
			return err
		}
		for i := len(docs) - 1; i >= 0; i-- {
			row := toDocumentRow(docs[i])
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
