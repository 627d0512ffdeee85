package domain

import (
	"context"
	"errors"
)

// Identity is a resolved caller. Subject is the stable per-user key the
// credit ledger is scoped by.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Verifier resolves a bearer token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

var (
	ErrMissingToken = errors.New("auth: missing bearer token")
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	// ErrVerifierUnavailable means the identity provider could not be
	// reached; distinct from a rejected token.
	ErrVerifierUnavailable = errors.New("auth: identity provider unavailable")
)
