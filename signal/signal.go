// Package signal parses inbound trade instructions into models.Signal.
// Two entry points exist, one per ingress channel: ParseText for chat
// commands and ParseWebhook for webhook JSON payloads. Both either return
// a Signal with Action and Symbol set, or a *ParseError.
package signal

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/moneyscripter/mt5relay/models"
)

// ParseError reports a malformed or incomplete instruction. Inputs that fail
// parsing never reach the terminal.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return "parse signal: " + e.Reason
}

// Grammar: ACTION SYMBOL [SL=n] [TP=n], anchored at the start of the message.
// SL must precede TP. Trailing text after the matched portion is ignored.
var commandRe = regexp.MustCompile(`^(BUY|SELL)\s+([A-Z]+)(?:\s+SL=([0-9.]+))?(?:\s+TP=([0-9.]+))?`)

// ParseText parses a free-text chat command. Matching is case-insensitive;
// action and symbol are normalized to uppercase.
func ParseText(text string) (models.Signal, error) {
	m := commandRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(text)))
	if m == nil {
		return models.Signal{}, &ParseError{Input: text, Reason: "expected BUY|SELL SYMBOL [SL=n] [TP=n]"}
	}

	sig := models.Signal{
		Action: models.Action(m[1]),
		Symbol: m[2],
	}

	if m[3] != "" {
		sl, err := parsePositive(m[3])
		if err != nil {
			return models.Signal{}, &ParseError{Input: text, Reason: "invalid SL value " + m[3]}
		}
		sig.StopLoss = decimal.NewNullDecimal(sl)
	}
	if m[4] != "" {
		tp, err := parsePositive(m[4])
		if err != nil {
			return models.Signal{}, &ParseError{Input: text, Reason: "invalid TP value " + m[4]}
		}
		sig.TakeProfit = decimal.NewNullDecimal(tp)
	}
	return sig, nil
}

type webhookPayload struct {
	Action string           `json:"action"`
	Symbol string           `json:"symbol"`
	Qty    *decimal.Decimal `json:"qty"`
	Price  *decimal.Decimal `json:"price"`
}

// ParseWebhook parses a webhook JSON body. Qty and price are optional; when
// present they must be valid positive numbers.
func ParseWebhook(body []byte) (models.Signal, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Signal{}, &ParseError{Input: string(body), Reason: "invalid JSON: " + err.Error()}
	}

	action := models.Action(strings.ToUpper(strings.TrimSpace(p.Action)))
	if action != models.ActionBuy && action != models.ActionSell {
		return models.Signal{}, &ParseError{Input: string(body), Reason: "action must be BUY or SELL"}
	}
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return models.Signal{}, &ParseError{Input: string(body), Reason: "symbol is required"}
	}

	sig := models.Signal{Action: action, Symbol: symbol}
	if p.Qty != nil {
		if !p.Qty.IsPositive() {
			return models.Signal{}, &ParseError{Input: string(body), Reason: "qty must be positive"}
		}
		sig.Volume = decimal.NewNullDecimal(*p.Qty)
	}
	if p.Price != nil {
		if !p.Price.IsPositive() {
			return models.Signal{}, &ParseError{Input: string(body), Reason: "price must be positive"}
		}
		sig.Price = decimal.NewNullDecimal(*p.Price)
	}
	return sig, nil
}

func parsePositive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, &ParseError{Input: s, Reason: "value must be positive"}
	}
	return d, nil
}
