package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/metrics"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const maxResponseBytes = 4 << 20

var errNoAPIKey = errors.New("no API key configured")

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

// Gemini calls the Generative Language generateContent endpoint.
type Gemini struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewGemini(cfg Config, client *http.Client, log *zap.Logger) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Gemini{cfg: cfg, client: client, limiter: limiter, log: log.Named("gateway")}
}

func (g *Gemini) AnalyzeDocument(ctx context.Context, data []byte, mimeType string) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: DocumentPrompt},
			},
		}},
	}
	return g.generate(ctx, OpAnalyze, req)
}

func (g *Gemini) Reply(ctx context.Context, message, studentContext string) (string, error) {
	req := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: message}},
		}},
		SystemInstruction: &content{Parts: []part{{Text: SystemInstruction(studentContext)}}},
	}
	return g.generate(ctx, OpChat, req)
}

func (g *Gemini) generate(ctx context.Context, op string, body generateRequest) (string, error) {
	start := time.Now()
	text, status, err := g.call(ctx, op, body)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordGatewayCall(op, "error", elapsed)
		g.log.Warn("gateway call failed", zap.String("op", op), zap.Int("status", status), zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", &models.GatewayError{Op: op, Status: status, Err: err}
	}

	metrics.RecordGatewayCall(op, "ok", elapsed)
	g.log.Debug("gateway call completed", zap.String("op", op), zap.Duration("elapsed", elapsed), zap.Int("chars", len(text)))
	return text, nil
}

func (g *Gemini) call(ctx context.Context, op string, body generateRequest) (string, int, error) {
	if g.cfg.APIKey == "" {
		return "", 0, errNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, url.PathEscape(g.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
			if len(msg) > 256 {
				msg = msg[:256] + "...(truncated)"
			}
		}
		return "", resp.StatusCode, errors.New(msg)
	}

	text, err := extractText(raw)
	return text, 0, err
}

// extractText joins the text parts of the first candidate.
func extractText(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", errors.New("malformed response body")
	}
	var sb strings.Builder
	for _, t := range gjson.GetBytes(raw, "candidates.0.content.parts.#.text").Array() {
		sb.WriteString(t.String())
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", models.ErrEmptyResponse
	}
	return text, nil
}
