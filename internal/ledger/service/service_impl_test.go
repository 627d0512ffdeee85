package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) ledgerdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&ledgerdomain.CreditAccount{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewService(Params{DB: db, Log: zap.NewNop()})
}

func TestGetOrCreateLazilyCreatesAccount(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	account, err := svc.GetOrCreate(ctx, "u1", "u1@example.com")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if account.Balance != 0 {
		t.Fatalf("expected zero balance, got %d", account.Balance)
	}
	if account.Email != "u1@example.com" {
		t.Fatalf("expected email persisted, got %q", account.Email)
	}

	// Second contact must not reset anything.
	if err := svc.Credit(ctx, "u1", 5); err != nil {
		t.Fatalf("credit: %v", err)
	}
	again, err := svc.GetOrCreate(ctx, "u1", "u1@example.com")
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if again.Balance != 5 {
		t.Fatalf("expected balance 5, got %d", again.Balance)
	}
}

func TestTryDebitRefusedAtZero(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, "u1", ""); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	applied, err := svc.TryDebit(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("try debit: %v", err)
	}
	if applied {
		t.Fatalf("expected debit refused at zero balance")
	}

	balance, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -3} {
		if err := svc.Credit(ctx, "u1", amount); err != ledgerdomain.ErrInvalidAmount {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, "u1", ""); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := svc.Credit(ctx, "u1", 5); err != nil {
		t.Fatalf("credit: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := svc.TryDebit(ctx, "u1", 1)
			if err != nil {
				t.Errorf("try debit: %v", err)
				return
			}
			results <- applied
		}()
	}
	wg.Wait()
	close(results)

	appliedCount := 0
	for applied := range results {
		if applied {
			appliedCount++
		}
	}
	if appliedCount != 5 {
		t.Fatalf("expected exactly 5 applied debits, got %d", appliedCount)
	}

	balance, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0 after fan-out, got %d", balance)
	}
}

func TestCreditAndDebitInterleave(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	if err := svc.Credit(ctx, "u1", 10); err != nil {
		t.Fatalf("credit: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.Credit(ctx, "u1", 1)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.TryDebit(ctx, "u1", 1)
		}()
	}
	wg.Wait()

	balance, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
}
