// Package mt5 talks to a MetaTrader 5 terminal through its local HTTP
// gateway bridge. Endpoints mirror the terminal API one to one:
// initialize, symbol_select, symbol_info_tick, order_send, last_error.
package mt5

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/moneyscripter/mt5relay/models"
	"github.com/moneyscripter/mt5relay/terminal"
)

const DefaultGatewayURL = "http://127.0.0.1:6542"

// Config carries the terminal credentials and gateway address.
type Config struct {
	GatewayURL   string
	Login        int64
	Password     string
	Server       string
	TerminalPath string
}

type Client struct {
	cfg       Config
	http      *http.Client
	log       *zap.Logger
	connected atomic.Bool
}

var _ terminal.Terminal = (*Client)(nil)

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

type initializeRequest struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
	Path     string `json:"path,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (c *Client) Connect(ctx context.Context) error {
	req := initializeRequest{
		Login:    c.cfg.Login,
		Password: c.cfg.Password,
		Server:   c.cfg.Server,
		Path:     c.cfg.TerminalPath,
	}
	var resp successResponse
	if err := c.call(ctx, http.MethodPost, "/initialize", req, &resp); err != nil {
		return errors.Wrap(err, "initialize")
	}
	if !resp.Success {
		detail, _ := c.LastError(ctx)
		return errors.Errorf("initialize rejected: %s", detail)
	}
	c.connected.Store(true)
	c.log.Info("mt5 terminal connected",
		zap.Int64("login", c.cfg.Login),
		zap.String("server", c.cfg.Server))
	return nil
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

type symbolSelectRequest struct {
	Symbol string `json:"symbol"`
	Enable bool   `json:"enable"`
}

func (c *Client) SelectSymbol(ctx context.Context, symbol string) error {
	var resp successResponse
	err := c.call(ctx, http.MethodPost, "/symbol_select", symbolSelectRequest{Symbol: symbol, Enable: true}, &resp)
	if err != nil {
		return errors.Wrap(err, "symbol_select")
	}
	if !resp.Success {
		return errors.Errorf("symbol %s not found or not available", symbol)
	}
	return nil
}

func (c *Client) Tick(ctx context.Context, symbol string) (models.Tick, error) {
	var tick *models.Tick
	path := "/symbol_info_tick?" + url.Values{"symbol": {symbol}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, &tick); err != nil {
		return models.Tick{}, errors.Wrap(err, "symbol_info_tick")
	}
	// The terminal returns null when no tick data exists for the symbol.
	if tick == nil {
		return models.Tick{}, errors.Errorf("no tick data for %s", symbol)
	}
	return *tick, nil
}

func (c *Client) SendOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	var result models.OrderResult
	if err := c.call(ctx, http.MethodPost, "/order_send", req, &result); err != nil {
		return models.OrderResult{}, errors.Wrap(err, "order_send")
	}
	return result, nil
}

type lastErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) LastError(ctx context.Context) (string, error) {
	var resp lastErrorResponse
	if err := c.call(ctx, http.MethodGet, "/last_error", nil, &resp); err != nil {
		return "", errors.Wrap(err, "last_error")
	}
	return fmt.Sprintf("(%d) %s", resp.Code, resp.Message), nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.GatewayURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Session state is owned by Connect alone. A transport error here (a
	// canceled caller context, a one-off network blip) fails this call only
	// and must not disable the session for later invocations.
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return errors.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode gateway response")
	}
	return nil
}
