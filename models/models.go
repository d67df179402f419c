package models

import "github.com/shopspring/decimal"

// Action is the direction of a trade signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Signal is a normalized trade instruction. It is only constructed by the
// parsers in the signal package; Action and Symbol are always set.
type Signal struct {
	Action     Action
	Symbol     string
	Volume     decimal.NullDecimal // absent: use the configured default lot size
	Price      decimal.NullDecimal // absent: resolve from the current tick
	StopLoss   decimal.NullDecimal
	TakeProfit decimal.NullDecimal
}

// MT5 trade protocol constants, as defined by the terminal API.
const (
	TradeActionDeal = 1

	OrderTypeBuy  = 0
	OrderTypeSell = 1

	OrderTimeGTC    = 0
	OrderFillingIOC = 1

	TradeRetcodeDone = 10009
)

// OrderRequest is the record sent to the terminal's order_send call.
// It is never mutated after construction.
type OrderRequest struct {
	Action     int                 `json:"action"`
	Symbol     string              `json:"symbol"`
	Volume     decimal.Decimal     `json:"volume"`
	Type       int                 `json:"type"`
	Price      decimal.Decimal     `json:"price"`
	StopLoss   decimal.NullDecimal `json:"sl"`
	TakeProfit decimal.NullDecimal `json:"tp"`
	Deviation  int                 `json:"deviation"`
	Magic      int                 `json:"magic"`
	Comment    string              `json:"comment"`
	TypeTime   int                 `json:"type_time"`
	TypeFill   int                 `json:"type_filling"`
}

// OrderResult is the terminal's response to order_send, passed through to the
// caller. Retcode is only ever compared against TradeRetcodeDone.
type OrderResult struct {
	Retcode   uint32          `json:"retcode"`
	Deal      int64           `json:"deal"`
	Order     int64           `json:"order"`
	Volume    decimal.Decimal `json:"volume"`
	Price     decimal.Decimal `json:"price"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Comment   string          `json:"comment"`
	RequestID uint32          `json:"request_id"`
}

// Tick is the current bid/ask pair for an instrument.
type Tick struct {
	Bid decimal.Decimal `json:"bid"`
	Ask decimal.Decimal `json:"ask"`
}
