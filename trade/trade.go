// Package trade turns a parsed signal into a single order placement against
// the broker terminal. One invocation is one linear pass: connected check,
// symbol select, optional tick fetch, request build, order send. Nothing is
// retried and no state survives the call.
package trade

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneyscripter/mt5relay/models"
	"github.com/moneyscripter/mt5relay/terminal"
)

// Config holds the static order parameters attached to every request.
type Config struct {
	DefaultVolume decimal.Decimal
	Deviation     int
	Magic         int
	Comment       string
}

// BuildOrderRequest maps a signal plus static configuration to a terminal
// order request. Pure: no I/O. When the signal carries no price the caller
// must have resolved one from the current tick before calling.
func BuildOrderRequest(sig models.Signal, cfg Config) models.OrderRequest {
	orderType := models.OrderTypeBuy
	if sig.Action == models.ActionSell {
		orderType = models.OrderTypeSell
	}

	volume := cfg.DefaultVolume
	if sig.Volume.Valid {
		volume = sig.Volume.Decimal
	}

	return models.OrderRequest{
		Action:     models.TradeActionDeal,
		Symbol:     sig.Symbol,
		Volume:     volume,
		Type:       orderType,
		Price:      sig.Price.Decimal,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Deviation:  cfg.Deviation,
		Magic:      cfg.Magic,
		Comment:    cfg.Comment,
		TypeTime:   models.OrderTimeGTC,
		TypeFill:   models.OrderFillingIOC,
	}
}

// Executor submits one order per signal against an injected terminal.
type Executor struct {
	term terminal.Terminal
	cfg  Config
	log  *zap.Logger
}

func NewExecutor(term terminal.Terminal, cfg Config, log *zap.Logger) *Executor {
	return &Executor{term: term, cfg: cfg, log: log}
}

// Execute runs the pipeline for one signal. The order is sent exactly once;
// every failure is terminal for this invocation.
func (e *Executor) Execute(ctx context.Context, sig models.Signal) (models.OrderResult, error) {
	if !e.term.IsConnected() {
		e.log.Error("trade refused, terminal not connected",
			zap.String("symbol", sig.Symbol), zap.String("action", string(sig.Action)))
		return models.OrderResult{}, ErrNotConnected
	}

	if err := e.term.SelectSymbol(ctx, sig.Symbol); err != nil {
		e.log.Error("symbol select failed", zap.String("symbol", sig.Symbol), zap.Error(err))
		return models.OrderResult{}, &SymbolError{Symbol: sig.Symbol, Err: err}
	}

	if !sig.Price.Valid {
		tick, err := e.term.Tick(ctx, sig.Symbol)
		if err != nil {
			e.log.Error("tick fetch failed", zap.String("symbol", sig.Symbol), zap.Error(err))
			return models.OrderResult{}, &SymbolError{Symbol: sig.Symbol, Err: err}
		}
		price := tick.Ask
		if sig.Action == models.ActionSell {
			price = tick.Bid
		}
		sig.Price = decimal.NewNullDecimal(price)
	}

	req := BuildOrderRequest(sig, e.cfg)
	result, err := e.term.SendOrder(ctx, req)
	if err != nil {
		e.log.Error("order send failed",
			zap.String("symbol", sig.Symbol),
			zap.String("action", string(sig.Action)),
			zap.Error(err))
		return models.OrderResult{}, errors.Wrap(err, "send order")
	}

	if result.Retcode != models.TradeRetcodeDone {
		e.log.Error("order rejected",
			zap.String("symbol", sig.Symbol),
			zap.Uint32("retcode", result.Retcode),
			zap.String("comment", result.Comment))
		return result, &OrderRejectedError{Retcode: result.Retcode, Comment: result.Comment}
	}

	e.log.Info("trade executed",
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.String("volume", req.Volume.String()),
		zap.String("price", req.Price.String()),
		zap.Int64("order", result.Order))
	return result, nil
}
