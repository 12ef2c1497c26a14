package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLiquidity rejects a market order whose opposing book side is
	// empty. The order is never rested.
	ErrNoLiquidity = errors.New("matching: no liquidity on opposing side")

	// ErrOrderNotFound rejects a cancel targeting an order that is not
	// resting in the book.
	ErrOrderNotFound = errors.New("matching: order not found")

	// ErrUnauthorized rejects a cancel targeting another account's order.
	ErrUnauthorized = errors.New("matching: order belongs to another account")

	// ErrUnknownMarket rejects operations on a pair with no engine.
	ErrUnknownMarket = errors.New("matching: unknown market")
)

// ValidationError reports a malformed or out-of-range order field. It is
// returned before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("matching: invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
