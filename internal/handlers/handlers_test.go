package handlers_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/assistant"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/gateway"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/handlers"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/httputil"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ledger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/routes"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/seed"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/session"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

type app struct {
	router http.Handler
	stub   *gateway.Stub
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }
	stub := &gateway.Stub{Summary: "Valid marksheet.", Answer: "Room 204 is on the second floor."}

	sess := session.New(
		ledger.New(ledger.NewMemoryRepository(), ledger.Config{Now: now}, nil),
		vault.New(vault.NewMemoryRepository(), stub, vault.Config{Now: now, MaxUploadBytes: 1024}, nil),
		"",
	)
	fx, err := seed.Default()
	require.NoError(t, err)
	require.NoError(t, seed.Run(ctx, sess, fx, nil))

	a := assistant.New(stub, sess, now, nil)
	require.NoError(t, a.Start(ctx))

	h := handlers.New(sess, a, 1024, zap.NewNop())
	return &app{router: routes.NewRoutes(h, zap.NewNop()), stub: stub}
}

func (a *app) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := newApp(t).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWalletFlow(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/api/wallet/pay", map[string]string{"amount": "85", "category": "canteen", "title": "Main Canteen Lunch"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"balance":"1165.50"`)
	assert.Contains(t, rec.Body.String(), `"amount":"85.00"`)
	receipt := decode[ledger.Receipt](t, rec)
	assert.Equal(t, "1165.5", receipt.Balance.String())
	assert.Equal(t, "Canteen", string(receipt.Transaction.Category))

	rec = a.do(t, http.MethodPost, "/api/wallet/topup", map[string]any{"amount": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt = decode[ledger.Receipt](t, rec)
	assert.Equal(t, "2165.5", receipt.Balance.String())

	rec = a.do(t, http.MethodGet, "/api/wallet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"2165.50"`)
	wallet := decode[handlers.WalletResponse](t, rec)
	assert.Equal(t, "2165.5", wallet.Balance.String())
	require.Len(t, wallet.Transactions, 6)
	assert.Equal(t, "credit", string(wallet.Transactions[0].Direction))
	assert.Equal(t, "2024-05-20", wallet.Transactions[0].Date.String())
}

func TestPay_Errors(t *testing.T) {
	a := newApp(t)

	tests := []struct {
		name  string
		body  any
		code  int
		field string
	}{
		{"missing amount", map[string]string{"category": "Fees"}, http.StatusBadRequest, "amount"},
		{"zero", map[string]string{"amount": "0", "category": "Fees"}, http.StatusBadRequest, "amount"},
		{"negative", map[string]any{"amount": -3, "category": "Fees"}, http.StatusBadRequest, "amount"},
		{"unknown category", map[string]string{"amount": "5", "category": "Hostel"}, http.StatusBadRequest, "category"},
		{"unknown field", map[string]string{"amount": "5", "category": "Fees", "tip": "1"}, http.StatusBadRequest, "body"},
		{"over balance", map[string]string{"amount": "5000", "category": "Fees"}, http.StatusUnprocessableEntity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/wallet/pay", tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			body := decode[httputil.ErrorResponse](t, rec)
			assert.Equal(t, tt.field, body.Field)
			assert.NotEmpty(t, body.Error)
		})
	}

	wallet := decode[handlers.WalletResponse](t, a.do(t, http.MethodGet, "/api/wallet", nil))
	assert.Equal(t, "1250.5", wallet.Balance.String())
	assert.Len(t, wallet.Transactions, 4)
}

func TestStatement(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/api/wallet/statement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement.csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rec = a.do(t, http.MethodGet, "/api/wallet/statement?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	xrows, err := f.GetRows("Statement")
	require.NoError(t, err)
	assert.Len(t, xrows, 5)

	rec = a.do(t, http.MethodGet, "/api/wallet/statement?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileViews(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/api/student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "Anita", st["name"])
	assert.Equal(t, "1250.50", st["balance"])
	assert.Equal(t, "CE-107054", st["roll_no"])

	card := decode[session.Card](t, a.do(t, http.MethodGet, "/api/card", nil))
	assert.Equal(t, "STU-2024-001", card.AccessCode)
	assert.Equal(t, "JUN 2028", card.ValidThru)

	dash := decode[session.Dashboard](t, a.do(t, http.MethodGet, "/api/dashboard", nil))
	assert.Len(t, dash.RecentTransactions, 4)
	assert.Equal(t, 2, dash.DocumentCount)
	assert.Equal(t, "605", dash.Spending.TotalSpent.String())
}

func multipartUpload(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/vault/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVaultUpload(t *testing.T) {
	a := newApp(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, multipartUpload(t, "sem5.pdf", "application/pdf", []byte("%PDF-1.4\n%test\n")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[vault.IngestResult](t, rec)
	assert.Equal(t, "Valid marksheet.", res.Analysis)
	assert.Equal(t, "Academic", res.Document.Type)
	assert.Equal(t, "Verified", string(res.Document.Status))

	docs := decode[handlers.DocumentsResponse](t, a.do(t, http.MethodGet, "/api/vault/documents", nil))
	require.Len(t, docs.Documents, 3)
	assert.Equal(t, "sem5.pdf", docs.Documents[0].Name)
	assert.False(t, docs.Busy)
}

func TestVaultUpload_Rejections(t *testing.T) {
	a := newApp(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, multipartUpload(t, "notes.txt", "text/plain", []byte("hello")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "media_type", decode[httputil.ErrorResponse](t, rec).Field)

	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, multipartUpload(t, "big.png", "image/png", bytes.Repeat([]byte{1}, 2048)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decode[httputil.ErrorResponse](t, rec).Field)

	rec = a.do(t, http.MethodPost, "/api/vault/documents", map[string]string{"file": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, a.stub.Calls())
}

func TestAssistant(t *testing.T) {
	a := newApp(t)

	tr := decode[assistant.Transcript](t, a.do(t, http.MethodGet, "/api/assistant/messages", nil))
	require.Len(t, tr.Messages, 1)
	assert.True(t, strings.HasPrefix(tr.Messages[0].Text, "Hi Anita!"))

	rec := a.do(t, http.MethodPost, "/api/assistant/messages", map[string]string{"message": "Where is room 204?"})
	require.Equal(t, http.StatusOK, rec.Code)
	ans := decode[assistant.Answer](t, rec)
	assert.Equal(t, "Room 204 is on the second floor.", ans.Reply.Text)

	rec = a.do(t, http.MethodPost, "/api/assistant/messages", map[string]string{"message": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tr = decode[assistant.Transcript](t, a.do(t, http.MethodGet, "/api/assistant/messages", nil))
	assert.Len(t, tr.Messages, 3)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	a.do(t, http.MethodGet, "/api/wallet", nil)

	rec := a.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "campus_wallet_http_requests_total")
	assert.Contains(t, rec.Body.String(), "campus_wallet_ledger_transactions_total")
}

func TestSwaggerDoc(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	assert.Equal(t, "Campus Smart Card API", doc.Info.Title)
	assert.Contains(t, doc.Paths["/api/wallet/pay"], "post")
	assert.Contains(t, doc.Paths["/api/vault/documents"], "post")
	assert.Contains(t, doc.Paths["/api/wallet/statement"], "get")
}
