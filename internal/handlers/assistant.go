package handlers

import (
	"net/http"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
)

type AskRequest struct {
	Message string `json:"message"`
}

// Transcript godoc
// @Summary      Assistant conversation so far
// @Tags         assistant
// @Produce      json
// @Success      200  {object}  assistant.Transcript
// @Router       /api/assistant/messages [get]
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.assistant.Transcript())
}

// Ask godoc
// @Summary      Send a message to the assistant
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request  body      handlers.AskRequest  true  "Message"
// @Success      200      {object}  assistant.Answer
// @Failure      400      {object}  httputil.ErrorResponse
// @Router       /api/assistant/messages [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	ans, err := h.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ans)
}
