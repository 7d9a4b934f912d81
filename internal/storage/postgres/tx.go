package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type tx struct {
	q querier
}

func (t *tx) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO payment_methods (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Owner, a.Name, string(a.Kind), a.Icon, a.Color,
		a.InitialBalance.Cents, a.CurrentBalance.Cents, a.IsActive, instant(a.CreatedAt))
	return classify("insert account", err)
}

// GetAccount takes no row lock. Writers lock the account in AdjustBalance,
// whose is_active filter reports a concurrently deactivated account as
// not_found.
func (t *tx) GetAccount(ctx context.Context, owner, id string) (core.Account, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM payment_methods WHERE id = $1 AND user_id = $2 AND is_active`, id, owner)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, classify("get account", notFound(err, "payment method", id))
	}
	return a, nil
}

func (t *tx) AdjustBalance(ctx context.Context, owner, id string, delta core.Money) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE payment_methods SET current_balance = current_balance + $1 WHERE id = $2 AND user_id = $3 AND is_active`,
		delta.Cents, id, owner)
	if err != nil {
		return classify("adjust balance", err)
	}
	return requireRow(tag, "payment method", id)
}

func (t *tx) DeactivateAccount(ctx context.Context, owner, id string) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE payment_methods SET is_active = FALSE WHERE id = $1 AND user_id = $2 AND is_active`, id, owner)
	if err != nil {
		return classify("deactivate account", err)
	}
	return requireRow(tag, "payment method", id)
}

func (t *tx) CountAccountTransactions(ctx context.Context, owner, id string) (int64, error) {
	var n int64
	err := t.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND `+storage.ActiveTransaction+
			` AND (payment_method_id = $2 OR to_payment_method_id = $2)`, owner, id).Scan(&n)
	return n, classify("count account transactions", err)
}

func (t *tx) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Owner, c.Name, string(c.Type), nullable(c.ParentID), c.Icon, c.Color, instant(c.CreatedAt))
	return classify("insert category", err)
}

func (t *tx) GetCategory(ctx context.Context, owner, id string) (core.Category, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`, id, owner)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, classify("get category", notFound(err, "category", id))
	}
	return c, nil
}

func (t *tx) InsertTransaction(ctx context.Context, tr *core.Transaction) error {
	err := t.q.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, type, amount_cents, description, transaction_date, category_id,
			payment_method_id, to_payment_method_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`,
		tr.ID, tr.Owner, string(tr.Type), tr.Amount.Cents, tr.Description, instant(tr.Date),
		nullable(tr.CategoryID), tr.FromAccountID, nullable(tr.ToAccountID), string(tr.Status),
		instant(tr.CreatedAt), instant(tr.UpdatedAt)).Scan(&tr.Seq)
	return classify("insert transaction", err)
}

func (t *tx) LockTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 AND `+storage.ActiveTransaction+
			` FOR UPDATE`, id, owner)
	tr, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, classify("lock transaction", notFound(err, "transaction", id))
	}
	return tr, nil
}

func (t *tx) UpdateTransaction(ctx context.Context, tr core.Transaction) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE transactions SET type = $1, amount_cents = $2, description = $3, transaction_date = $4, category_id = $5,
			payment_method_id = $6, to_payment_method_id = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10 AND `+storage.ActiveTransaction,
		string(tr.Type), tr.Amount.Cents, tr.Description, instant(tr.Date), nullable(tr.CategoryID),
		tr.FromAccountID, nullable(tr.ToAccountID), instant(tr.UpdatedAt), tr.ID, tr.Owner)
	if err != nil {
		return classify("update transaction", err)
	}
	return requireRow(tag, "transaction", tr.ID)
}

func (t *tx) MarkTransactionDeleted(ctx context.Context, owner, id string, at time.Time) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE transactions SET status = 'deleted', updated_at = $1 WHERE id = $2 AND user_id = $3 AND `+
			storage.ActiveTransaction, instant(at), id, owner)
	if err != nil {
		return classify("delete transaction", err)
	}
	return requireRow(tag, "transaction", id)
}

func (t *tx) InsertBudget(ctx context.Context, b core.Budget) error {
	var end *time.Time
	if b.EndDate != nil {
		e := instant(*b.EndDate)
		end = &e
	}
	_, err := t.q.Exec(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Owner, b.Name, b.Amount.Cents, string(b.PeriodType), instant(b.StartDate), end,
		nullable(b.CategoryID), b.IsActive, instant(b.CreatedAt), instant(b.UpdatedAt))
	return classify("insert budget", err)
}

func (t *tx) LockBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2 AND is_active FOR UPDATE`, id, owner)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, classify("lock budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (t *tx) UpdateBudget(ctx context.Context, b core.Budget) error {
	var end *time.Time
	if b.EndDate != nil {
		e := instant(*b.EndDate)
		end = &e
	}
	tag, err := t.q.Exec(ctx,
		`UPDATE budgets SET name = $1, amount_cents = $2, period_type = $3, start_date = $4, end_date = $5,
			category_id = $6, is_active = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10`,
		b.Name, b.Amount.Cents, string(b.PeriodType), instant(b.StartDate), end,
		nullable(b.CategoryID), b.IsActive, instant(b.UpdatedAt), b.ID, b.Owner)
	if err != nil {
		return classify("update budget", err)
	}
	return requireRow(tag, "budget", b.ID)
}

func requireRow(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return core.NotFound(entity, id)
	}
	return nil
}
