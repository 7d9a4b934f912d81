package services

import (
	"testing"

	"saldo/internal/core"
)

func TestListingIncludesWholeEndDay(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		cash := f.account("Cash", 0)
		food := f.category("Food", core.CategoryExpense, "")
		late := f.create(NewTransaction{Type: core.TypeExpense, Amount: core.Money{Cents: 100}, Date: day("2024-03-15T21:45:00Z"), CategoryID: food.ID, FromAccountID: cash.ID})
		f.expense(cash.ID, food.ID, 200, "2024-03-16")

		to := day("2024-03-15")
		got, err := f.svc.Query.ListTransactions(f.ctx, owner, core.TransactionFilter{DateFrom: timePtr(day("2024-03-15")), DateTo: &to})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != late.ID {
			t.Errorf("got %+v, want only the evening transaction", got)
		}
	})
}

func TestListingOrderAndFilters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		cash := f.account("Cash", 0)
		bank := f.account("Bank", 0)
		food := f.category("Food", core.CategoryExpense, "")
		salary := f.category("Salary", core.CategoryIncome, "")

		a := f.expense(cash.ID, food.ID, 100, "2024-01-10")
		b := f.expense(cash.ID, food.ID, 200, "2024-01-10")
		c := f.create(NewTransaction{Type: core.TypeIncome, Amount: core.Money{Cents: 300}, Date: day("2024-01-12"), CategoryID: salary.ID, FromAccountID: bank.ID})
		d := f.create(NewTransaction{Type: core.TypeTransfer, Amount: core.Money{Cents: 50}, Date: day("2024-01-01"), FromAccountID: bank.ID, ToAccountID: cash.ID})

		got := f.allTransactions(core.TransactionFilter{})
		wantIDs(t, got, c.ID, a.ID, b.ID, d.ID)

		wantIDs(t, f.allTransactions(core.TransactionFilter{Type: core.TypeExpense}), a.ID, b.ID)
		wantIDs(t, f.allTransactions(core.TransactionFilter{CategoryID: salary.ID}), c.ID)

		_, err := f.svc.Query.ListTransactions(f.ctx, owner, core.TransactionFilter{Type: "refund"})
		wantKind(t, err, core.KindValidation)
	})
}

func TestPaginationAgreesWithCount(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		cash := f.account("Cash", 0)
		food := f.category("Food", core.CategoryExpense, "")
		for i := 0; i < 23; i++ {
			date := day("2024-01-01").AddDate(0, 0, i%5)
			f.create(NewTransaction{Type: core.TypeExpense, Amount: core.Money{Cents: int64(i + 1)}, Date: date, CategoryID: food.ID, FromAccountID: cash.ID})
		}
		deleted := f.expense(cash.ID, food.ID, 999, "2024-01-02")
		if _, err := f.svc.Ledger.Delete(f.ctx, owner, deleted.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}

		filter := core.TransactionFilter{DateFrom: timePtr(day("2024-01-02"))}
		total, err := f.svc.Query.CountTransactions(f.ctx, owner, filter)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		all := f.allTransactions(filter)
		if int64(len(all)) != total {
			t.Fatalf("paged %d rows, count says %d", len(all), total)
		}
		seen := map[string]bool{}
		for i, tx := range all {
			if seen[tx.ID] {
				t.Errorf("transaction %s listed twice", tx.ID)
			}
			seen[tx.ID] = true
			if i > 0 && core.Less(tx, all[i-1]) {
				t.Errorf("rows %d and %d out of order", i-1, i)
			}
		}
		if seen[deleted.ID] {
			t.Error("deleted transaction listed")
		}

		page, err := f.svc.Query.Page(f.ctx, owner, core.TransactionFilter{Limit: 10, Offset: 10})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if page.Total != 23 || len(page.Items) != 10 || page.Pages() != 3 {
			t.Errorf("page = total %d, items %d, pages %d", page.Total, len(page.Items), page.Pages())
		}

		page, err = f.svc.Query.Page(f.ctx, owner, core.TransactionFilter{Limit: 1000})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		if page.Limit != core.MaxPageSize || len(page.Items) != 23 {
			t.Errorf("clamped page = limit %d, items %d", page.Limit, len(page.Items))
		}
	})
}

func wantIDs(t *testing.T, got []core.Transaction, ids ...string) {
	t.Helper()
	if len(got) != len(ids) {
		t.Fatalf("got %d transactions, want %d", len(got), len(ids))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}
