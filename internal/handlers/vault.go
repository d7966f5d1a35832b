package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

type DocumentsResponse struct {
	Documents []models.Document `json:"documents"`
	Busy      bool              `json:"busy"`
}

// Documents godoc
// @Summary      Document collection, newest first
// @Tags         vault
// @Produce      json
// @Success      200  {object}  handlers.DocumentsResponse
// @Failure      500  {object}  httputil.ErrorResponse
// @Router       /api/vault/documents [get]
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.sess.Vault.ListDocuments(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DocumentsResponse{Documents: docs, Busy: h.sess.Vault.Busy()})
}

// Upload ingests the multipart field "file".
//
// @Summary      Upload and analyze a document
// @Tags         vault
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "PDF or image"
// @Success      201   {object}  vault.IngestResult
// @Failure      400   {object}  httputil.ErrorResponse
// @Failure      409   {object}  httputil.ErrorResponse
// @Router       /api/vault/documents [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.fail(w, models.Invalid("file", "exceeds the %d byte limit", h.maxUploadBytes))
			return
		}
		h.fail(w, models.Invalid("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	// one extra byte lets the vault see an oversized upload
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.fail(w, models.Invalid("file", "read upload: %v", err))
		return
	}

	res, err := h.sess.Vault.Ingest(r.Context(), vault.Upload{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
		FileName: header.Filename,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
