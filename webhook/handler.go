// Package webhook is the HTTP front-end. One endpoint, POST /webhook,
// receives a TradingView-style JSON alert, verifies its HMAC signature and
// relays it to the trading pipeline.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/moneyscripter/mt5relay/models"
	"github.com/moneyscripter/mt5relay/signal"
	"github.com/moneyscripter/mt5relay/trade"
)

const maxBodySize = 1 << 20

// Executor places one order for a parsed signal.
type Executor interface {
	Execute(ctx context.Context, sig models.Signal) (models.OrderResult, error)
}

type Handler struct {
	exec   Executor
	secret []byte
	log    *zap.Logger
}

func NewHandler(exec Executor, secret []byte, log *zap.Logger) *Handler {
	return &Handler{exec: exec, secret: secret, log: log}
}

// VerifySignature checks an X-Signature header (hex HMAC-SHA256 of the raw
// body) in constant time. An empty secret disables verification and accepts
// every request; this permissive default matches the documented behavior and
// is asserted by tests.
func VerifySignature(secret, body []byte, signature string) bool {
	if len(secret) == 0 {
		return true
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type successResponse struct {
	Status string             `json:"status"`
	Order  models.OrderResult `json:"order"`
}

type errorResponse struct {
	Error any `json:"error"`
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot read body"})
		return
	}

	if !VerifySignature(h.secret, body, r.Header.Get("X-Signature")) {
		h.log.Warn("webhook signature rejected", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
		return
	}

	sig, err := signal.ParseWebhook(body)
	if err != nil {
		h.log.Warn("webhook parse failed", zap.ByteString("body", body), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.exec.Execute(r.Context(), sig)
	if err != nil {
		h.log.Error("webhook order failed",
			zap.String("symbol", sig.Symbol),
			zap.String("action", string(sig.Action)),
			zap.Error(err))
		var rejected *trade.OrderRejectedError
		if errors.As(err, &rejected) {
			// Rejections carry the full terminal result, like the success path.
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: result})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	h.log.Info("webhook order placed",
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.Int64("order", result.Order))
	writeJSON(w, http.StatusOK, successResponse{Status: "success", Order: result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
