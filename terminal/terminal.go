// Package terminal defines the broker-terminal collaborator boundary. The
// trading pipeline depends on this interface only, so tests substitute a stub
// and never touch a live terminal.
package terminal

import (
	"context"

	"github.com/moneyscripter/mt5relay/models"
)

// Terminal is a connection to a broker trading terminal. Every call is
// blocking and may fail; callers must check returns explicitly. The session
// is connected once at process start and reused for all calls.
type Terminal interface {
	// Connect initializes the terminal session and authenticates.
	Connect(ctx context.Context) error
	// IsConnected reports whether the session is usable.
	IsConnected() bool
	// SelectSymbol makes an instrument available for trading.
	SelectSymbol(ctx context.Context, symbol string) error
	// Tick returns the current bid/ask for an instrument.
	Tick(ctx context.Context, symbol string) (models.Tick, error)
	// SendOrder submits a single order and returns the terminal's result.
	SendOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	// LastError returns the terminal's last recorded error detail.
	LastError(ctx context.Context) (string, error)
}
