package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

const owner = "u1"

var errBoom = errors.New("boom")

// seeded returns a store holding one account with 100.00, one category and
// one expense of 10.00 against them.
func seeded(t *testing.T) (*Store, core.Transaction) {
	t.Helper()
	s := New()
	ctx := context.Background()
	at := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tr := core.Transaction{
		ID: "t1", Owner: owner, Type: core.TypeExpense, Amount: core.Money{Cents: 1000},
		Date: at, CategoryID: "c1", FromAccountID: "a1", Status: core.StatusActive,
	}
	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.InsertAccount(ctx, core.Account{ID: "a1", Owner: owner, Name: "Cash", InitialBalance: core.Money{Cents: 10000}, CurrentBalance: core.Money{Cents: 10000}, IsActive: true}); err != nil {
			return err
		}
		if err := tx.InsertCategory(ctx, core.Category{ID: "c1", Owner: owner, Name: "Food", Type: core.CategoryExpense}); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, &tr); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, owner, "a1", core.Money{Cents: -1000})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, tr
}

// wantSeedState asserts the store holds exactly what seeded wrote.
func wantSeedState(t *testing.T, s *Store, seed core.Transaction) {
	t.Helper()
	ctx := context.Background()
	accounts, _ := s.ListAccounts(ctx, owner)
	if len(accounts) != 1 || accounts[0].ID != "a1" || accounts[0].CurrentBalance.Cents != 9000 {
		t.Errorf("accounts = %+v, want only a1 at 9000", accounts)
	}
	if n, _ := s.CountCategories(ctx, owner); n != 1 {
		t.Errorf("categories = %d, want 1", n)
	}
	got, err := s.GetTransaction(ctx, owner, seed.ID)
	if err != nil {
		t.Fatalf("seed transaction lost: %v", err)
	}
	if got.Amount != seed.Amount || got.Status != core.StatusActive || got.Description != seed.Description || got.Seq != 1 {
		t.Errorf("seed transaction = %+v", got)
	}
	if _, err := s.GetTransaction(ctx, owner, "t2"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("rolled back transaction still readable: %v", err)
	}
	if budgets, _ := s.ListBudgets(ctx, owner); len(budgets) != 0 {
		t.Errorf("budgets = %+v, want none", budgets)
	}
}

// scribble touches every table the unit of work can write.
func scribble(ctx context.Context, tx storage.Tx, seed core.Transaction) error {
	if err := tx.InsertAccount(ctx, core.Account{ID: "a2", Owner: owner, Name: "Bank", IsActive: true}); err != nil {
		return err
	}
	if err := tx.InsertCategory(ctx, core.Category{ID: "c2", Owner: owner, Name: "Rent", Type: core.CategoryExpense}); err != nil {
		return err
	}
	second := core.Transaction{ID: "t2", Owner: owner, Type: core.TypeExpense, Amount: core.Money{Cents: 1}, FromAccountID: "a1", CategoryID: "c1", Status: core.StatusActive}
	if err := tx.InsertTransaction(ctx, &second); err != nil {
		return err
	}
	if err := tx.AdjustBalance(ctx, owner, "a1", core.Money{Cents: -500}); err != nil {
		return err
	}
	if err := tx.AdjustBalance(ctx, owner, "a1", core.Money{Cents: -250}); err != nil {
		return err
	}
	changed := seed
	changed.Amount = core.Money{Cents: 7777}
	changed.Description = "edited"
	if err := tx.UpdateTransaction(ctx, changed); err != nil {
		return err
	}
	if err := tx.MarkTransactionDeleted(ctx, owner, seed.ID, time.Now()); err != nil {
		return err
	}
	if err := tx.InsertBudget(ctx, core.Budget{ID: "b1", Owner: owner, Name: "Groceries", IsActive: true}); err != nil {
		return err
	}
	return tx.DeactivateAccount(ctx, owner, "a1")
}

func TestFailedUnitRestoresEveryWrite(t *testing.T) {
	s, seed := seeded(t)
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		if err := scribble(ctx, tx, seed); err != nil {
			t.Fatalf("scribble: %v", err)
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithinTx() error = %v, want the unit's error", err)
	}
	wantSeedState(t, s, seed)

	// The sequence is restored with the rows, so the next insert follows the seed.
	next := core.Transaction{ID: "t3", Owner: owner, Type: core.TypeExpense, Amount: core.Money{Cents: 1}, FromAccountID: "a1", CategoryID: "c1", Status: core.StatusActive}
	err = s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertTransaction(ctx, &next)
	})
	if err != nil || next.Seq != 2 {
		t.Errorf("insert after rollback: seq=%d err=%v, want seq 2", next.Seq, err)
	}
}

func TestPanicRollsBackAndPropagates(t *testing.T) {
	s, seed := seeded(t)
	func() {
		defer func() {
			if p := recover(); p != errBoom {
				t.Fatalf("recovered %v, want the unit's panic", p)
			}
		}()
		_ = s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			if err := scribble(ctx, tx, seed); err != nil {
				t.Fatalf("scribble: %v", err)
			}
			panic(errBoom)
		})
	}()
	wantSeedState(t, s, seed)
}

func TestCancelledUnitRollsBack(t *testing.T) {
	s, seed := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := scribble(ctx, tx, seed); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if core.KindOf(err) != core.KindUnavailable {
		t.Fatalf("WithinTx() error = %v, want store_unavailable", err)
	}
	wantSeedState(t, s, seed)
}

func TestNotFoundInsideUnitUndoesEarlierAdjustment(t *testing.T) {
	s, seed := seeded(t)
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		if err := tx.AdjustBalance(ctx, owner, "a1", core.Money{Cents: 300}); err != nil {
			return err
		}
		// A missing account fails the unit and undoes the adjustment above.
		return tx.AdjustBalance(ctx, owner, "missing", core.Money{Cents: 1})
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("WithinTx() error = %v, want not_found", err)
	}
	wantSeedState(t, s, seed)

	err = s.WithinTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.AdjustBalance(ctx, owner, "a1", core.Money{Cents: 300})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	accounts, _ := s.ListAccounts(context.Background(), owner)
	if accounts[0].CurrentBalance.Cents != 9300 {
		t.Errorf("committed balance = %d, want 9300", accounts[0].CurrentBalance.Cents)
	}
}
