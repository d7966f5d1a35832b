package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ledger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

type WalletResponse struct {
	Balance      decimal.Decimal      `json:"balance" swaggertype:"string"`
	Transactions []models.Transaction `json:"transactions"`
}

func (wr WalletResponse) MarshalJSON() ([]byte, error) {
	type plain WalletResponse
	return json.Marshal(struct {
		plain
		Balance string `json:"balance"`
	}{plain(wr), wr.Balance.StringFixed(2)})
}

// PayRequest accepts the amount as a JSON string or number.
type PayRequest struct {
	Amount   json.Number `json:"amount" swaggertype:"string"`
	Category string      `json:"category"`
	Title    string      `json:"title"`
}

type TopUpRequest struct {
	Amount json.Number `json:"amount" swaggertype:"string"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.Invalid("body", "%v", err)
	}
	return nil
}

// Wallet godoc
// @Summary      Balance and transaction history, newest first
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  handlers.WalletResponse
// @Failure      500  {object}  httputil.ErrorResponse
// @Router       /api/wallet [get]
func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bal, err := h.sess.Ledger.Balance(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	txs, err := h.sess.Ledger.ListTransactions(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WalletResponse{Balance: bal, Transactions: txs})
}

// Pay godoc
// @Summary      Debit the wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      handlers.PayRequest  true  "Payment"
// @Success      201      {object}  ledger.Receipt
// @Failure      400      {object}  httputil.ErrorResponse
// @Failure      422      {object}  httputil.ErrorResponse
// @Router       /api/wallet/pay [post]
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	amount, err := models.ParseAmount(req.Amount.String(), decimal.Zero)
	if err != nil {
		h.fail(w, err)
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		h.fail(w, err)
		return
	}

	receipt, err := h.sess.Ledger.RecordDebit(r.Context(), amount, req.Title, category)
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

// TopUp godoc
// @Summary      Credit the wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      handlers.TopUpRequest  true  "Top-up"
// @Success      201      {object}  ledger.Receipt
// @Failure      400      {object}  httputil.ErrorResponse
// @Router       /api/wallet/topup [post]
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	amount, err := models.ParseAmount(req.Amount.String(), decimal.Zero)
	if err != nil {
		h.fail(w, err)
		return
	}

	receipt, err := h.sess.Ledger.RecordCredit(r.Context(), amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

// Statement downloads the history as CSV, or XLSX with ?format=xlsx.
//
// @Summary      Download the transaction statement
// @Tags         wallet
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format  query     string  false  "csv or xlsx"  Enums(csv, xlsx)
// @Success      200     {file}    file
// @Failure      400     {object}  httputil.ErrorResponse
// @Router       /api/wallet/statement [get]
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	var (
		write       func(*bytes.Buffer, []models.Transaction) error
		contentType string
	)
	switch format {
	case "csv":
		write = func(b *bytes.Buffer, txs []models.Transaction) error { return ledger.WriteCSV(b, txs) }
		contentType = "text/csv"
	case "xlsx":
		write = func(b *bytes.Buffer, txs []models.Transaction) error { return ledger.WriteXLSX(b, txs) }
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		h.fail(w, models.Invalid("format", "%q is not csv or xlsx", format))
		return
	}

	txs, err := h.sess.Ledger.ListTransactions(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, txs); err != nil {
		h.fail(w, fmt.Errorf("render statement: %w", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Warn("write statement", zap.Error(err))
	}
}
