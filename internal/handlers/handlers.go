package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/assistant"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/session"
)

// multipart overhead allowed on top of the upload limit
const formSlack = 1 << 20

type Handler struct {
	sess           *session.Session
	assistant      *assistant.Assistant
	log            *zap.Logger
	maxUploadBytes int64
}

func New(sess *session.Session, a *assistant.Assistant, maxUploadBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		sess:           sess,
		assistant:      a,
		log:            log.Named("handlers"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Health godoc
// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	httputil.WriteErr(w, h.log, err)
}
