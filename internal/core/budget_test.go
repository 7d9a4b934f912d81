package core

import (
	"testing"
	"time"
)

func TestBudgetWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	b := Budget{Owner: "u1", StartDate: start, EndDate: &end, CategoryID: "groceries"}
	w := b.Window()

	expense := func(day time.Time, cat string) Transaction {
		return Transaction{Owner: "u1", Type: TypeExpense, Status: StatusActive, Date: day, CategoryID: cat, Amount: Money{Cents: 100}}
	}

	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"on start", expense(start, "groceries"), true},
		{"late on end day", expense(end.Add(22*time.Hour), "groceries"), true},
		{"after end", expense(end.AddDate(0, 0, 1), "groceries"), false},
		{"before start", expense(start.Add(-time.Millisecond), "groceries"), false},
		{"other category", expense(start, "rent"), false},
		{"income", func() Transaction { tx := expense(start, "groceries"); tx.Type = TypeIncome; return tx }(), false},
		{"deleted", func() Transaction { tx := expense(start, "groceries"); tx.Status = StatusDeleted; return tx }(), false},
		{"other owner", func() Transaction { tx := expense(start, "groceries"); tx.Owner = "u2"; return tx }(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Matches(tt.tx); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	open := Budget{Owner: "u1", StartDate: start}.Window()
	if !open.Matches(expense(start.AddDate(5, 0, 0), "anything")) {
		t.Errorf("open-ended budget without category should match any later expense")
	}
}

func TestNewBudgetStatus(t *testing.T) {
	st := NewBudgetStatus(Money{Cents: 20000}, Money{Cents: 13000})
	if st.Remaining.Cents != 7000 {
		t.Errorf("Remaining = %d, want 7000", st.Remaining.Cents)
	}
	if st.Percentage != 65 {
		t.Errorf("Percentage = %v, want 65", st.Percentage)
	}

	over := NewBudgetStatus(Money{Cents: 1000}, Money{Cents: 1500})
	if over.Remaining.Cents != -500 || over.Percentage != 150 {
		t.Errorf("overrun status = %+v", over)
	}

	third := NewBudgetStatus(Money{Cents: 300}, Money{Cents: 100})
	if third.Percentage != 33.33 {
		t.Errorf("Percentage = %v, want 33.33", third.Percentage)
	}
}

func TestRollupExpenses(t *testing.T) {
	cats := []Category{
		{ID: "food", Name: "Food & Dining", Type: CategoryExpense},
		{ID: "groceries", Name: "Groceries", Type: CategoryExpense, ParentID: "food"},
		{ID: "rent", Name: "Rent", Type: CategoryExpense},
	}
	totals := []CategoryTotal{
		{CategoryID: "groceries", Type: TypeExpense, Total: Money{Cents: 5000}},
		{CategoryID: "food", Type: TypeExpense, Total: Money{Cents: 1000}},
		{CategoryID: "rent", Type: TypeExpense, Total: Money{Cents: 90000}},
		{CategoryID: "salary", Type: TypeIncome, Total: Money{Cents: 300000}},
	}
	got := RollupExpenses(totals, cats)
	if len(got) != 2 {
		t.Fatalf("expected 2 roots, got %+v", got)
	}
	if got[0].CategoryID != "rent" || got[0].Amount.Cents != 90000 {
		t.Errorf("first root = %+v", got[0])
	}
	if got[1].CategoryID != "food" || got[1].Amount.Cents != 6000 || len(got[1].Children) != 1 {
		t.Errorf("food rollup = %+v", got[1])
	}
}
