//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/storage"
)

func openIntegrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresBalanceRoundTrip(t *testing.T) {
	s := openIntegrationStore(t)
	ctx := context.Background()
	owner := uuid.NewString()
	now := core.NormalizeInstant(time.Now())

	acc := core.Account{
		ID: uuid.NewString(), Owner: owner, Name: "Cash", Kind: core.AccountCash,
		InitialBalance: core.Money{Cents: 10000}, CurrentBalance: core.Money{Cents: 10000},
		IsActive: true, CreatedAt: now,
	}
	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAccount(ctx, acc); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, owner, acc.ID, core.Money{Cents: -2500})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	accounts, err := s.ListAccounts(ctx, owner)
	if err != nil || len(accounts) != 1 || accounts[0].CurrentBalance.Cents != 7500 {
		t.Fatalf("accounts=%+v err=%v", accounts, err)
	}

	err = s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.LockTransaction(ctx, owner, uuid.NewString())
		return err
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Writers on the same accounts must neither deadlock nor lose an update:
// every create succeeds on the first attempt and the balances add up.
func TestPostgresConcurrentWritersShareAccounts(t *testing.T) {
	s := openIntegrationStore(t)
	ctx := context.Background()
	owner := uuid.NewString()
	svc := services.New(s, nil, services.Options{StoreTimeout: 30 * time.Second})

	a, err := svc.Accounts.CreateAccount(ctx, owner, services.NewAccount{Name: "A", Kind: core.AccountBank, InitialBalance: core.Money{Cents: 100000}})
	if err != nil {
		t.Fatalf("account A: %v", err)
	}
	b, err := svc.Accounts.CreateAccount(ctx, owner, services.NewAccount{Name: "B", Kind: core.AccountCash})
	if err != nil {
		t.Fatalf("account B: %v", err)
	}
	food, err := svc.Categories.CreateCategory(ctx, owner, services.NewCategory{Name: "Food", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("category: %v", err)
	}

	const workers, perWorker = 8, 5
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				in := services.NewTransaction{Type: core.TypeExpense, Amount: core.Money{Cents: 100}, Date: date, CategoryID: food.ID, FromAccountID: a.ID}
				switch w % 3 {
				case 1:
					in = services.NewTransaction{Type: core.TypeTransfer, Amount: core.Money{Cents: 300}, Date: date, FromAccountID: a.ID, ToAccountID: b.ID}
				case 2:
					in = services.NewTransaction{Type: core.TypeTransfer, Amount: core.Money{Cents: 200}, Date: date, FromAccountID: b.ID, ToAccountID: a.ID}
				}
				start := time.Now()
				if _, err := svc.Ledger.Create(ctx, owner, in); err != nil {
					errs <- err
				} else if d := time.Since(start); d > 900*time.Millisecond {
					t.Logf("create took %v", d)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent create failed: kind=%s err=%v", core.KindOf(err), err)
	}

	// Workers 0,3,6 spend, 1,4,7 move A to B, 2,5 move B to A.
	wantA := int64(100000 - 3*perWorker*100 - 3*perWorker*300 + 2*perWorker*200)
	wantB := int64(3*perWorker*300 - 2*perWorker*200)
	accounts, err := s.ListAccounts(ctx, owner)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	got := map[string]int64{}
	for _, acc := range accounts {
		got[acc.ID] = acc.CurrentBalance.Cents
	}
	if got[a.ID] != wantA || got[b.ID] != wantB {
		t.Fatalf("balances A=%d B=%d, want A=%d B=%d", got[a.ID], got[b.ID], wantA, wantB)
	}

	if err := svc.Accounts.DeactivateAccount(ctx, owner, b.ID); core.KindOf(err) != core.KindConflict {
		t.Fatalf("deactivating a referenced account: %v, want conflict", err)
	}
}
