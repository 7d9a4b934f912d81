package postgres

import (
	"time"

	"saldo/internal/core"
)

type scanner interface {
	Scan(dest ...any) error
}

const accountColumns = "id, user_id, name, type, icon, color, initial_balance, current_balance, is_active, created_at"

func scanAccount(row scanner) (core.Account, error) {
	var (
		a    core.Account
		kind string
	)
	err := row.Scan(&a.ID, &a.Owner, &a.Name, &kind, &a.Icon, &a.Color,
		&a.InitialBalance.Cents, &a.CurrentBalance.Cents, &a.IsActive, &a.CreatedAt)
	a.Kind = core.AccountKind(kind)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}

const categoryColumns = "id, user_id, name, type, parent_id, icon, color, created_at"

func scanCategory(row scanner) (core.Category, error) {
	var (
		c        core.Category
		typ      string
		parentID *string
	)
	err := row.Scan(&c.ID, &c.Owner, &c.Name, &typ, &parentID, &c.Icon, &c.Color, &c.CreatedAt)
	c.Type = core.CategoryType(typ)
	c.ParentID = deref(parentID)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

const transactionColumns = "seq, id, user_id, type, amount_cents, description, transaction_date, category_id, " +
	"payment_method_id, to_payment_method_id, status, created_at, updated_at"

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                       core.Transaction
		typ, status             string
		categoryID, toAccountID *string
	)
	err := row.Scan(&t.Seq, &t.ID, &t.Owner, &typ, &t.Amount.Cents, &t.Description, &t.Date, &categoryID,
		&t.FromAccountID, &toAccountID, &status, &t.CreatedAt, &t.UpdatedAt)
	t.Type = core.TransactionType(typ)
	t.Status = core.TransactionStatus(status)
	t.CategoryID = deref(categoryID)
	t.ToAccountID = deref(toAccountID)
	t.Date, t.CreatedAt, t.UpdatedAt = t.Date.UTC(), t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return t, err
}

const budgetColumns = "id, user_id, name, amount_cents, period_type, start_date, end_date, category_id, " +
	"is_active, created_at, updated_at"

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b          core.Budget
		period     string
		end        *time.Time
		categoryID *string
	)
	err := row.Scan(&b.ID, &b.Owner, &b.Name, &b.Amount.Cents, &period, &b.StartDate, &end, &categoryID,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	b.PeriodType = core.PeriodType(period)
	b.CategoryID = deref(categoryID)
	b.StartDate, b.CreatedAt, b.UpdatedAt = b.StartDate.UTC(), b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	if end != nil {
		e := end.UTC()
		b.EndDate = &e
	}
	return b, err
}
