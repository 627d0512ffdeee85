package domain

import "errors"

var (
	ErrInvalidUser   = errors.New("ledger: user id is required")
	ErrInvalidAmount = errors.New("ledger: amount must be a positive integer")

	// ErrInvariantViolation means the storage layer let a balance go
	// negative. Unreachable with the atomic primitives; surfaced loudly.
	ErrInvariantViolation = errors.New("ledger: balance invariant violated")
)
