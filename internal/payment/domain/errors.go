package domain

import "errors"

var (
	ErrInvalidConfig    = errors.New("payment: invalid adapter config")
	ErrProviderNotFound = errors.New("payment: unknown provider")

	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrInvalidPayload   = errors.New("payment: invalid payload")
	ErrInvalidEvent     = errors.New("payment: invalid event")
	ErrInvalidProvider  = errors.New("payment: invalid provider")
	ErrInvalidUser      = errors.New("payment: event missing user mapping")
	ErrInvalidCredits   = errors.New("payment: invalid credit amount")

	// ErrEventIgnored marks event types that carry no credits; the
	// webhook still acknowledges them.
	ErrEventIgnored = errors.New("payment: event ignored")

	// ErrEventAlreadyProcessed marks a re-delivered event whose credit
	// was already applied.
	ErrEventAlreadyProcessed = errors.New("payment: event already processed")

	ErrCheckoutFailed = errors.New("payment: checkout session creation failed")
)
