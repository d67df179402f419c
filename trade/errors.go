package trade

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotConnected is returned when the terminal session is not usable. The
// pipeline surfaces this as a failure instead of retrying or blocking.
var ErrNotConnected = errors.New("terminal not connected")

// SymbolError reports an instrument that could not be selected or quoted.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("symbol %s: %v", e.Symbol, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// OrderRejectedError reports a non-success retcode from the terminal. The
// call itself succeeded; the broker refused the order.
type OrderRejectedError struct {
	Retcode uint32
	Comment string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s (code %d)", e.Comment, e.Retcode)
}
