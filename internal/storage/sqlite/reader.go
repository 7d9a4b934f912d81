package sqlite

import (
	"context"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

func (s *Store) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM payment_methods WHERE user_id = ? AND is_active = 1 ORDER BY created_at, rowid`, owner)
	if err != nil {
		return nil, classify("list accounts", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, classify("scan account", err)
		}
		out = append(out, a)
	}
	return out, classify("list accounts", rows.Err())
}

func (s *Store) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, owner)
	if err != nil {
		return nil, classify("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, classify("scan category", err)
		}
		out = append(out, c)
	}
	return out, classify("list categories", rows.Err())
}

func (s *Store) CountCategories(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, owner).Scan(&n)
	return n, classify("count categories", err)
}

func (s *Store) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	return getTransaction(ctx, s.db, owner, id)
}

func getTransaction(ctx context.Context, q querier, owner, id string) (core.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ? AND `+storage.ActiveTransaction,
		id, owner)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, classify("get transaction", notFound(err, "transaction", id))
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	args := storage.NewArgs(dialect)
	where := storage.TransactionWhere(args, owner, f)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ` + storage.TransactionOrder +
		` LIMIT ` + args.Bind(f.Limit) + ` OFFSET ` + args.Bind(f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args.Values()...)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, classify("scan transaction", err)
		}
		out = append(out, t)
	}
	return out, classify("list transactions", rows.Err())
}

func (s *Store) CountTransactions(ctx context.Context, owner string, f core.TransactionFilter) (int64, error) {
	args := storage.NewArgs(dialect)
	where := storage.TransactionWhere(args, owner, f)

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args.Values()...).Scan(&n)
	return n, classify("count transactions", err)
}

func (s *Store) SumExpenses(ctx context.Context, w core.SpendWindow) (core.Money, error) {
	args := storage.NewArgs(dialect)
	where := storage.SpendWhere(args, w)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE `+where, args.Values()...).Scan(&total)
	return core.Money{Cents: total}, classify("sum expenses", err)
}

func (s *Store) CategoryTotals(ctx context.Context, owner string, from, to *time.Time) ([]core.CategoryTotal, error) {
	args := storage.NewArgs(dialect)
	where := storage.PeriodWhere(args, owner, from, to)
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, type, SUM(amount_cents), COUNT(*) FROM transactions WHERE `+where+
			` GROUP BY category_id, type ORDER BY category_id`, args.Values()...)
	if err != nil {
		return nil, classify("category totals", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			ct  core.CategoryTotal
			typ string
		)
		if err := rows.Scan(&ct.CategoryID, &typ, &ct.Total.Cents, &ct.Count); err != nil {
			return nil, classify("scan category total", err)
		}
		ct.Type = core.TransactionType(typ)
		out = append(out, ct)
	}
	return out, classify("category totals", rows.Err())
}

func (s *Store) GetBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ? AND is_active = 1`, id, owner)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, classify("get budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, classify("list budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, classify("scan budget", err)
		}
		out = append(out, b)
	}
	return out, classify("list budgets", rows.Err())
}
