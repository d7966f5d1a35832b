// Package vault keeps the student's document collection and enriches every
// upload with an AI analysis summary.
package vault

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/gateway"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ids"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/metrics"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const (
	FallbackSummary = "Analysis complete. Document verified."
	PendingSummary  = "AI analysis unavailable. Document queued for manual review."

	DefaultMaxUploadBytes = 10 << 20
	maxFileNameLen        = 255
)

type FailurePolicy string

const (
	// FailOpen stores the document as Verified when analysis fails.
	FailOpen FailurePolicy = "fail-open"
	// FailClosed stores it as Pending instead.
	FailClosed FailurePolicy = "fail-closed"
)

func (p FailurePolicy) Valid() bool {
	return p == FailOpen || p == FailClosed
}

type Config struct {
	FailurePolicy  FailurePolicy
	MaxUploadBytes int64
	Now            func() time.Time
}

// Upload is one file handed to Ingest.
type Upload struct {
	Data     []byte
	MimeType string
	FileName string
}

type IngestResult struct {
	Document models.Document `json:"document"`
	// Analysis is the text shown to the student after the upload.
	Analysis string `json:"analysis"`
	// Degraded is set when the analyzer failed and a fallback was used.
	Degraded bool `json:"degraded"`
}

type Store struct {
	repo     Repository
	analyzer gateway.DocumentAnalyzer
	cfg      Config
	ids      *ids.Generator
	log      *zap.Logger
	busy     atomic.Bool
}

func New(repo Repository, analyzer gateway.DocumentAnalyzer, cfg Config, log *zap.Logger) *Store {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailOpen
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:     repo,
		analyzer: analyzer,
		cfg:      cfg,
		ids:      ids.NewGenerator("d"),
		log:      log.Named("vault"),
	}
}

// Busy reports whether an ingest is in flight.
func (s *Store) Busy() bool {
	return s.busy.Load()
}

// Ingest analyzes the upload and prepends the resulting document. Analyzer
// failures never escape: the configured failure policy decides the status
// and a fallback summary is attached. Only validation errors and
// ErrIngestInProgress are returned before any state changes.
func (s *Store) Ingest(ctx context.Context, up Upload) (IngestResult, error) {
	name, mt, err := s.validate(up)
	if err != nil {
		metrics.RecordIngest("rejected")
		return IngestResult{}, err
	}

	if !s.busy.CompareAndSwap(false, true) {
		metrics.RecordIngest("busy")
		return IngestResult{}, models.ErrIngestInProgress
	}
	defer s.busy.Store(false)

	res := IngestResult{}
	summary, aerr := s.analyzer.AnalyzeDocument(ctx, up.Data, mt)
	status := models.StatusVerified
	switch {
	case aerr != nil:
		res.Degraded = true
		s.log.Warn("document analysis failed",
			zap.String("file", name),
			zap.String("policy", string(s.cfg.FailurePolicy)),
			zap.Error(aerr),
		)
		summary = FallbackSummary
		if s.cfg.FailurePolicy == FailClosed {
			status = models.StatusPending
			summary = PendingSummary
		}
	case strings.TrimSpace(summary) == "":
		summary = FallbackSummary
	}

	now := s.cfg.Now()
	doc := models.Document{
		ID:        s.ids.Next(now),
		Name:      name,
		Type:      TypeLabel(mt),
		MimeType:  mt,
		SizeBytes: int64(len(up.Data)),
		Date:      models.DateOf(now),
		Status:    status,
		Summary:   summary,
	}
	// The analysis outcome is settled; a cancelled caller must not drop
	// the document.
	if err := s.repo.Prepend(context.WithoutCancel(ctx), doc); err != nil {
		metrics.RecordIngest("error")
		return IngestResult{}, fmt.Errorf("store document: %w", err)
	}

	outcome := strings.ToLower(string(status))
	if res.Degraded {
		outcome += "_degraded"
	}
	metrics.RecordIngest(outcome)
	s.log.Info("document ingested",
		zap.String("id", doc.ID),
		zap.String("type", doc.Type),
		zap.String("status", string(doc.Status)),
		zap.Int64("bytes", doc.SizeBytes),
	)

	res.Document = doc
	res.Analysis = summary
	return res, nil
}

func (s *Store) validate(up Upload) (string, string, error) {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(up.FileName, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		return "", "", models.Invalid("file_name", "is required")
	}
	if len(name) > maxFileNameLen {
		return "", "", models.Invalid("file_name", "longer than %d bytes", maxFileNameLen)
	}
	if len(up.Data) == 0 {
		return "", "", models.Invalid("file", "is empty")
	}
	if int64(len(up.Data)) > s.cfg.MaxUploadBytes {
		return "", "", models.Invalid("file", "%d bytes exceeds the %d byte limit", len(up.Data), s.cfg.MaxUploadBytes)
	}
	mt := resolveMediaType(up.MimeType, up.Data)
	if err := checkMediaType(mt); err != nil {
		return "", "", err
	}
	return name, mt, nil
}

// ListDocuments returns a copy of the collection, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.repo.Documents(ctx)
}

// Restore replaces the collection with docs, newest first.
func (s *Store) Restore(ctx context.Context, docs []models.Document) error {
	for _, d := range docs {
		if d.ID == "" || strings.TrimSpace(d.Name) == "" {
			return models.Invalid("document", "seed document needs an id and a name")
		}
		switch d.Status {
		case models.StatusVerified, models.StatusPending, models.StatusRejected:
		default:
			return fmt.Errorf("document %s: %w", d.ID, models.Invalid("status", "%q", d.Status))
		}
	}
	if err := s.repo.Load(ctx, docs); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	s.log.Info("vault restored", zap.Int("documents", len(docs)))
	return nil
}
