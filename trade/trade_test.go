package trade

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moneyscripter/mt5relay/models"
)

type stubTerminal struct {
	connected   bool
	selectErr   error
	tick        models.Tick
	tickErr     error
	result      models.OrderResult
	sendErr     error
	selectCalls int
	tickCalls   int
	sendCalls   int
	lastRequest models.OrderRequest
}

func (s *stubTerminal) Connect(ctx context.Context) error { return nil }
func (s *stubTerminal) IsConnected() bool                 { return s.connected }

func (s *stubTerminal) SelectSymbol(ctx context.Context, symbol string) error {
	s.selectCalls++
	return s.selectErr
}

func (s *stubTerminal) Tick(ctx context.Context, symbol string) (models.Tick, error) {
	s.tickCalls++
	return s.tick, s.tickErr
}

func (s *stubTerminal) SendOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	s.sendCalls++
	s.lastRequest = req
	return s.result, s.sendErr
}

func (s *stubTerminal) LastError(ctx context.Context) (string, error) { return "", nil }

func testConfig() Config {
	return Config{
		DefaultVolume: decimal.RequireFromString("0.1"),
		Deviation:     20,
		Magic:         123456,
		Comment:       "mt5relay",
	}
}

func doneResult() models.OrderResult {
	return models.OrderResult{Retcode: models.TradeRetcodeDone, Order: 42, Comment: "Request executed"}
}

func TestBuildOrderRequestMapsActionToOrderType(t *testing.T) {
	cfg := testConfig()
	price := decimal.NewNullDecimal(decimal.RequireFromString("1.0931"))

	buy := BuildOrderRequest(models.Signal{Action: models.ActionBuy, Symbol: "EURUSD", Price: price}, cfg)
	assert.Equal(t, models.OrderTypeBuy, buy.Type)

	sell := BuildOrderRequest(models.Signal{Action: models.ActionSell, Symbol: "EURUSD", Price: price}, cfg)
	assert.Equal(t, models.OrderTypeSell, sell.Type)
}

func TestBuildOrderRequestStaticFields(t *testing.T) {
	cfg := testConfig()
	sig := models.Signal{
		Action: models.ActionBuy,
		Symbol: "EURUSD",
		Price:  decimal.NewNullDecimal(decimal.RequireFromString("1.0931")),
	}

	req := BuildOrderRequest(sig, cfg)

	assert.Equal(t, models.TradeActionDeal, req.Action)
	assert.Equal(t, "EURUSD", req.Symbol)
	assert.Equal(t, "0.1", req.Volume.String()) // configured default lot size
	assert.Equal(t, "1.0931", req.Price.String())
	assert.Equal(t, 20, req.Deviation)
	assert.Equal(t, 123456, req.Magic)
	assert.Equal(t, "mt5relay", req.Comment)
	assert.Equal(t, models.OrderTimeGTC, req.TypeTime)
	assert.Equal(t, models.OrderFillingIOC, req.TypeFill)
}

func TestBuildOrderRequestSignalVolumeWins(t *testing.T) {
	sig := models.Signal{
		Action: models.ActionBuy,
		Symbol: "EURUSD",
		Volume: decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
		Price:  decimal.NewNullDecimal(decimal.RequireFromString("1.0931")),
	}
	req := BuildOrderRequest(sig, testConfig())
	assert.Equal(t, "0.5", req.Volume.String())
}

func TestExecuteResolvesTickWhenPriceAbsent(t *testing.T) {
	term := &stubTerminal{
		connected: true,
		tick: models.Tick{
			Bid: decimal.RequireFromString("1.0930"),
			Ask: decimal.RequireFromString("1.0932"),
		},
		result: doneResult(),
	}
	exec := NewExecutor(term, testConfig(), zap.NewNop())

	_, err := exec.Execute(context.Background(), models.Signal{Action: models.ActionBuy, Symbol: "EURUSD"})
	require.NoError(t, err)
	assert.Equal(t, 1, term.tickCalls)
	assert.Equal(t, "1.0932", term.lastRequest.Price.String()) // ask for BUY

	_, err = exec.Execute(context.Background(), models.Signal{Action: models.ActionSell, Symbol: "EURUSD"})
	require.NoError(t, err)
	assert.Equal(t, "1.093", term.lastRequest.Price.String()) // bid for SELL
}

func TestExecuteSkipsTickWhenPricePresent(t *testing.T) {
	term := &stubTerminal{connected: true, result: doneResult()}
	exec := NewExecutor(term, testConfig(), zap.NewNop())

	sig := models.Signal{
		Action: models.ActionBuy,
		Symbol: "EURUSD",
		Price:  decimal.NewNullDecimal(decimal.RequireFromString("1.0931")),
	}
	_, err := exec.Execute(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, 0, term.tickCalls)
}

func TestExecuteNotConnected(t *testing.T) {
	term := &stubTerminal{connected: false}
	exec := NewExecutor(term, testConfig(), zap.NewNop())

	_, err := exec.Execute(context.Background(), models.Signal{Action: models.ActionBuy, Symbol: "EURUSD"})
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, term.sendCalls)
}

func TestExecuteSymbolSelectFailure(t *testing.T) {
	term := &stubTerminal{connected: true, selectErr: errors.New("unknown symbol")}
	exec := NewExecutor(term, testConfig(), zap.NewNop())

	_, err := exec.Execute(context.Background(), models.Signal{Action: models.ActionBuy, Symbol: "NOPE"})
	var serr *SymbolError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "NOPE", serr.Symbol)
	assert.Equal(t, 0, term.sendCalls)
}

func TestExecuteRejectedOrderIsNotRetried(t *testing.T) {
	term := &stubTerminal{
		connected: true,
		tick:      models.Tick{Bid: decimal.New(1, 0), Ask: decimal.New(1, 0)},
		result:    models.OrderResult{Retcode: 10019, Comment: "No money"},
	}
	exec := NewExecutor(term, testConfig(), zap.NewNop())

	result, err := exec.Execute(context.Background(), models.Signal{Action: models.ActionBuy, Symbol: "EURUSD"})

	var rejected *OrderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, uint32(10019), rejected.Retcode)
	assert.Equal(t, "No money", rejected.Comment)
	// The rejection passes the terminal result through.
	assert.Equal(t, uint32(10019), result.Retcode)
	assert.Equal(t, 1, term.sendCalls)
}
