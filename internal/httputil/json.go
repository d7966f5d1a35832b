package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/logger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, ErrorResponse{Error: msg})
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrIngestInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrLedgerInconsistent):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteErr writes err with the status from StatusFor. Server errors are
// logged and their detail is not exposed.
func WriteErr(w http.ResponseWriter, log *zap.Logger, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		WriteError(w, code, http.StatusText(code))
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	WriteJSON(w, code, resp)
}
