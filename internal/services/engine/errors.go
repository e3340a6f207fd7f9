package engine

import "errors"

var (
	// ErrInsufficientData means the candle window is too short for a stage.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvariantViolation means a constructed zone or level is malformed.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDivisionByZero means the risk distance of a trade is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidInput means the snapshot itself is unusable (empty symbol, price <= 0).
	ErrInvalidInput = errors.New("invalid input")
)
