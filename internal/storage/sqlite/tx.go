package sqlite

import (
	"context"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type tx struct {
	q querier
}

func (t *tx) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO payment_methods (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Owner, a.Name, string(a.Kind), a.Icon, a.Color,
		a.InitialBalance.Cents, a.CurrentBalance.Cents, a.IsActive, core.FormatInstant(a.CreatedAt))
	return classify("insert account", err)
}

func (t *tx) GetAccount(ctx context.Context, owner, id string) (core.Account, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM payment_methods WHERE id = ? AND user_id = ? AND is_active = 1`, id, owner)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, classify("get account", notFound(err, "payment method", id))
	}
	return a, nil
}

func (t *tx) AdjustBalance(ctx context.Context, owner, id string, delta core.Money) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE payment_methods SET current_balance = current_balance + ? WHERE id = ? AND user_id = ? AND is_active = 1`,
		delta.Cents, id, owner)
	if err != nil {
		return classify("adjust balance", err)
	}
	return requireRow(res, "payment method", id)
}

func (t *tx) DeactivateAccount(ctx context.Context, owner, id string) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE payment_methods SET is_active = 0 WHERE id = ? AND user_id = ? AND is_active = 1`, id, owner)
	if err != nil {
		return classify("deactivate account", err)
	}
	return requireRow(res, "payment method", id)
}

func (t *tx) CountAccountTransactions(ctx context.Context, owner, id string) (int64, error) {
	var n int64
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND `+storage.ActiveTransaction+
			` AND (payment_method_id = ? OR to_payment_method_id = ?)`, owner, id, id).Scan(&n)
	return n, classify("count account transactions", err)
}

func (t *tx) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Owner, c.Name, string(c.Type), nullable(c.ParentID), c.Icon, c.Color, core.FormatInstant(c.CreatedAt))
	return classify("insert category", err)
}

func (t *tx) GetCategory(ctx context.Context, owner, id string) (core.Category, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, owner)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, classify("get category", notFound(err, "category", id))
	}
	return c, nil
}

func (t *tx) InsertTransaction(ctx context.Context, tr *core.Transaction) error {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount_cents, description, transaction_date, category_id,
			payment_method_id, to_payment_method_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.Owner, string(tr.Type), tr.Amount.Cents, tr.Description, core.FormatInstant(tr.Date),
		nullable(tr.CategoryID), tr.FromAccountID, nullable(tr.ToAccountID), string(tr.Status),
		core.FormatInstant(tr.CreatedAt), core.FormatInstant(tr.UpdatedAt))
	if err != nil {
		return classify("insert transaction", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return classify("insert transaction", err)
	}
	tr.Seq = seq
	return nil
}

// LockTransaction reads inside the unit of work. BEGIN IMMEDIATE already holds
// the database write lock, so no row lock is needed.
func (t *tx) LockTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	return getTransaction(ctx, t.q, owner, id)
}

func (t *tx) UpdateTransaction(ctx context.Context, tr core.Transaction) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE transactions SET type = ?, amount_cents = ?, description = ?, transaction_date = ?, category_id = ?,
			payment_method_id = ?, to_payment_method_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND `+storage.ActiveTransaction,
		string(tr.Type), tr.Amount.Cents, tr.Description, core.FormatInstant(tr.Date), nullable(tr.CategoryID),
		tr.FromAccountID, nullable(tr.ToAccountID), core.FormatInstant(tr.UpdatedAt), tr.ID, tr.Owner)
	if err != nil {
		return classify("update transaction", err)
	}
	return requireRow(res, "transaction", tr.ID)
}

func (t *tx) MarkTransactionDeleted(ctx context.Context, owner, id string, at time.Time) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE transactions SET status = 'deleted', updated_at = ? WHERE id = ? AND user_id = ? AND `+storage.ActiveTransaction,
		core.FormatInstant(at), id, owner)
	if err != nil {
		return classify("delete transaction", err)
	}
	return requireRow(res, "transaction", id)
}

func (t *tx) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Owner, b.Name, b.Amount.Cents, string(b.PeriodType), core.FormatInstant(b.StartDate),
		nullableInstant(b.EndDate), nullable(b.CategoryID), b.IsActive,
		core.FormatInstant(b.CreatedAt), core.FormatInstant(b.UpdatedAt))
	return classify("insert budget", err)
}

func (t *tx) LockBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ? AND is_active = 1`, id, owner)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, classify("lock budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (t *tx) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE budgets SET name = ?, amount_cents = ?, period_type = ?, start_date = ?, end_date = ?, category_id = ?,
			is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount.Cents, string(b.PeriodType), core.FormatInstant(b.StartDate), nullableInstant(b.EndDate),
		nullable(b.CategoryID), b.IsActive, core.FormatInstant(b.UpdatedAt), b.ID, b.Owner)
	if err != nil {
		return classify("update budget", err)
	}
	return requireRow(res, "budget", b.ID)
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffected, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify("rows affected", err)
	}
	if n == 0 {
		return core.NotFound(entity, id)
	}
	return nil
}
