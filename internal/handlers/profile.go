package handlers

import (
	"net/http"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
)

// Student godoc
// @Summary      Student profile with the live wallet balance
// @Tags         profile
// @Produce      json
// @Success      200  {object}  models.Student
// @Failure      500  {object}  httputil.ErrorResponse
// @Router       /api/student [get]
func (h *Handler) Student(w http.ResponseWriter, r *http.Request) {
	st, err := h.sess.Profile(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

// Dashboard godoc
// @Summary      Home view: profile, recent transactions and spending
// @Tags         profile
// @Produce      json
// @Success      200  {object}  session.Dashboard
// @Failure      500  {object}  httputil.ErrorResponse
// @Router       /api/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.sess.Dashboard(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// Card godoc
// @Summary      Virtual ID card
// @Tags         profile
// @Produce      json
// @Success      200  {object}  session.Card
// @Failure      500  {object}  httputil.ErrorResponse
// @Router       /api/card [get]
func (h *Handler) Card(w http.ResponseWriter, r *http.Request) {
	c, err := h.sess.Card(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}
