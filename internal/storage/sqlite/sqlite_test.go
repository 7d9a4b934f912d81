package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "saldo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAccount(id string) core.Account {
	return core.Account{
		ID: id, Owner: "u1", Name: "Cash", Kind: core.AccountCash,
		InitialBalance: core.Money{Cents: 10000}, CurrentBalance: core.Money{Cents: 10000},
		IsActive: true, CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saldo.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("second open should find no pending migrations: %v", err)
	}
	s.Close()
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAccount(ctx, testAccount("a1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	accounts, err := s.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("rolled back account is visible: %+v", accounts)
	}
}

func TestAdjustBalanceAndOwnership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAccount(ctx, testAccount("a1")); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, "u1", "a1", core.Money{Cents: -3000})
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	err = s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.AdjustBalance(ctx, "someone-else", "a1", core.Money{Cents: 1})
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign owner should see not found, got %v", err)
	}

	accounts, _ := s.ListAccounts(ctx, "u1")
	if len(accounts) != 1 || accounts[0].CurrentBalance.Cents != 7000 {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
	if !accounts[0].CreatedAt.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at did not round-trip: %v", accounts[0].CreatedAt)
	}
}

func TestTransactionSeqAndDeletedVisibility(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	date := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	var first, second core.Transaction
	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAccount(ctx, testAccount("a1")); err != nil {
			return err
		}
		if err := tx.InsertAccount(ctx, testAccount("a2")); err != nil {
			return err
		}
		first = core.Transaction{ID: "t1", Owner: "u1", Type: core.TypeTransfer, Amount: core.Money{Cents: 500},
			Date: date, FromAccountID: "a1", ToAccountID: "a2", Status: core.StatusActive, CreatedAt: date, UpdatedAt: date}
		second = first
		second.ID = "t2"
		if err := tx.InsertTransaction(ctx, &first); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, &second)
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.Seq == 0 || second.Seq <= first.Seq {
		t.Fatalf("seq not assigned in insertion order: %d, %d", first.Seq, second.Seq)
	}

	err = s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.MarkTransactionDeleted(ctx, "u1", "t1", date)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", "t1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted transaction should be not found, got %v", err)
	}

	got, err := s.GetTransaction(ctx, "u1", "t2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CategoryID != "" || got.ToAccountID != "a2" || !got.Date.Equal(date) {
		t.Fatalf("transfer did not round-trip: %+v", got)
	}
}

func TestClassifyPassesThroughCoreErrors(t *testing.T) {
	nf := core.NotFound("transaction", "x")
	if got := classify("op", nf); got != nf {
		t.Fatalf("classified core error changed: %v", got)
	}
	if got := classify("op", context.DeadlineExceeded); !errors.Is(got, core.ErrStoreUnavailable) {
		t.Fatalf("deadline should be unavailable, got %v", got)
	}
}
