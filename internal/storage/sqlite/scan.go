package sqlite

import (
	"database/sql"
	"errors"

	"saldo/internal/core"
)

type scanner interface {
	Scan(dest ...any) error
}

const accountColumns = "id, user_id, name, type, icon, color, initial_balance, current_balance, is_active, created_at"

func scanAccount(row scanner) (core.Account, error) {
	var (
		a         core.Account
		kind      string
		createdAt string
	)
	err := row.Scan(&a.ID, &a.Owner, &a.Name, &kind, &a.Icon, &a.Color,
		&a.InitialBalance.Cents, &a.CurrentBalance.Cents, &a.IsActive, &createdAt)
	if err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	a.CreatedAt, err = parseInstant(createdAt)
	return a, err
}

const categoryColumns = "id, user_id, name, type, parent_id, icon, color, created_at"

func scanCategory(row scanner) (core.Category, error) {
	var (
		c         core.Category
		typ       string
		parentID  sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Owner, &c.Name, &typ, &parentID, &c.Icon, &c.Color, &createdAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	c.ParentID = parentID.String
	var err error
	c.CreatedAt, err = parseInstant(createdAt)
	return c, err
}

const transactionColumns = "seq, id, user_id, type, amount_cents, description, transaction_date, category_id, " +
	"payment_method_id, to_payment_method_id, status, created_at, updated_at"

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                          core.Transaction
		typ, status                string
		date, createdAt, updatedAt string
		categoryID, toAccountID    sql.NullString
	)
	err := row.Scan(&t.Seq, &t.ID, &t.Owner, &typ, &t.Amount.Cents, &t.Description, &date, &categoryID,
		&t.FromAccountID, &toAccountID, &status, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Status = core.TransactionStatus(status)
	t.CategoryID = categoryID.String
	t.ToAccountID = toAccountID.String
	if t.Date, err = parseInstant(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseInstant(createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.UpdatedAt, err = parseInstant(updatedAt)
	return t, err
}

const budgetColumns = "id, user_id, name, amount_cents, period_type, start_date, end_date, category_id, " +
	"is_active, created_at, updated_at"

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b                           core.Budget
		period                      string
		start, createdAt, updatedAt string
		end, categoryID             sql.NullString
	)
	err := row.Scan(&b.ID, &b.Owner, &b.Name, &b.Amount.Cents, &period, &start, &end, &categoryID,
		&b.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.PeriodType = core.PeriodType(period)
	b.CategoryID = categoryID.String
	if b.StartDate, err = parseInstant(start); err != nil {
		return core.Budget{}, err
	}
	if end.Valid {
		e, err := parseInstant(end.String)
		if err != nil {
			return core.Budget{}, err
		}
		b.EndDate = &e
	}
	if b.CreatedAt, err = parseInstant(createdAt); err != nil {
		return core.Budget{}, err
	}
	b.UpdatedAt, err = parseInstant(updatedAt)
	return b, err
}

// notFound turns sql.ErrNoRows into a NotFoundError for entity/id.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound(entity, id)
	}
	return err
}
