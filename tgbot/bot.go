// Package tgbot is the Telegram front-end. Authorized users send free-text
// commands like "BUY EURUSD SL=1.05 TP=1.10" and get a formatted reply with
// the outcome of the order.
package tgbot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneyscripter/mt5relay/models"
	"github.com/moneyscripter/mt5relay/signal"
)

const (
	replyUnauthorized = "⛔ Unauthorized user."
	replyUsage        = "⚠️ Invalid format. Use: BUY|SELL SYMBOL [SL=...] [TP=...]"
)

// Executor places one order for a parsed signal.
type Executor interface {
	Execute(ctx context.Context, sig models.Signal) (models.OrderResult, error)
}

type Bot struct {
	b          *bot.Bot
	exec       Executor
	authorized map[int64]struct{}
	log        *zap.Logger
}

func New(token string, exec Executor, authorizedIDs []int64, log *zap.Logger) (*Bot, error) {
	tb := &Bot{
		exec:       exec,
		authorized: make(map[int64]struct{}, len(authorizedIDs)),
		log:        log,
	}
	for _, id := range authorizedIDs {
		tb.authorized[id] = struct{}{}
	}

	b, err := bot.New(token, bot.WithDefaultHandler(tb.handleMessage))
	if err != nil {
		return nil, err
	}
	tb.b = b
	return tb, nil
}

// Run starts long polling and blocks until ctx is canceled.
func (t *Bot) Run(ctx context.Context) {
	t.log.Info("telegram bot started")
	t.b.Start(ctx)
}

func (t *Bot) handleMessage(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	reply := t.process(ctx, update.Message.From.ID, update.Message.Text)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	})
	if err != nil {
		t.log.Error("telegram reply failed", zap.Int64("chat", update.Message.Chat.ID), zap.Error(err))
	}
}

// process runs the pipeline for one message and returns the reply text. Kept
// free of Telegram transport types so tests drive it directly.
func (t *Bot) process(ctx context.Context, userID int64, text string) string {
	if _, ok := t.authorized[userID]; !ok {
		t.log.Warn("unauthorized telegram access attempt", zap.Int64("user", userID))
		return replyUnauthorized
	}

	sig, err := signal.ParseText(text)
	if err != nil {
		t.log.Warn("telegram command parse failed",
			zap.Int64("user", userID),
			zap.String("input", text),
			zap.Error(err))
		return replyUsage
	}

	_, err = t.exec.Execute(ctx, sig)
	if err != nil {
		t.log.Error("telegram order failed",
			zap.Int64("user", userID),
			zap.String("input", text),
			zap.Error(err))
		return "❌ Order failed: " + err.Error()
	}

	return fmt.Sprintf("✅ Trade executed: %s %s\nSL: %s | TP: %s",
		sig.Action, sig.Symbol, nullDecimalText(sig.StopLoss), nullDecimalText(sig.TakeProfit))
}

func nullDecimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return "None"
	}
	return d.Decimal.String()
}
