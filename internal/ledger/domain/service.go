package domain

import "context"

// Service is the only gateway to balance state. Callers never
// read-then-write a balance in two steps; all mutation goes through
// the two atomic primitives below.
type Service interface {
	// GetOrCreate returns the account, creating a zero-balance row on
	// first contact.
	GetOrCreate(ctx context.Context, userID, email string) (*CreditAccount, error)

	// Balance returns the current balance, creating the account when
	// it does not exist yet.
	Balance(ctx context.Context, userID string) (int64, error)

	// TryDebit atomically decrements the balance by amount iff the
	// result stays >= 0. Reports whether the debit applied.
	TryDebit(ctx context.Context, userID string, amount int64) (bool, error)

	// Credit atomically increments the balance by amount. Amount must
	// be positive or ErrInvalidAmount is returned with no mutation.
	Credit(ctx context.Context, userID string, amount int64) error
}
