package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendWindow selects the expense transactions a budget consumes.
type SpendWindow struct {
	Owner      string
	From       time.Time
	To         *time.Time // inclusive; nil is open-ended
	CategoryID string     // empty matches every category
}

// Window returns the aggregation window of b. The start is fixed for every
// period type; an end date covers its whole calendar day.
func (b Budget) Window() SpendWindow {
	w := SpendWindow{
		Owner:      b.Owner,
		From:       NormalizeInstant(b.StartDate),
		CategoryID: b.CategoryID,
	}
	if b.EndDate != nil {
		to := NormalizeInstant(*b.EndDate)
		if IsBareDate(to) {
			to = EndOfDay(to)
		}
		w.To = &to
	}
	return w
}

// Matches reports whether t counts toward the window.
func (w SpendWindow) Matches(t Transaction) bool {
	if t.Owner != w.Owner || t.Status != StatusActive || t.Type != TypeExpense {
		return false
	}
	if t.Date.Before(w.From) {
		return false
	}
	if w.To != nil && t.Date.After(*w.To) {
		return false
	}
	return w.CategoryID == "" || t.CategoryID == w.CategoryID
}

// BudgetStatus is the derived consumption of a budget.
type BudgetStatus struct {
	Spent      Money
	Remaining  Money // negative on overrun
	Percentage float64
}

// NewBudgetStatus computes spent/remaining/percentage. amount must be
// positive; budgets with a zero amount are rejected on creation.
func NewBudgetStatus(amount, spent Money) BudgetStatus {
	st := BudgetStatus{
		Spent:     spent,
		Remaining: amount.Sub(spent),
	}
	if amount.Cents > 0 {
		pct := spent.Decimal().Div(amount.Decimal()).Mul(decimal.NewFromInt(100)).Round(2)
		st.Percentage = pct.InexactFloat64()
	}
	return st
}

// BudgetView is a budget with its current status.
type BudgetView struct {
	Budget
	Status BudgetStatus
}
