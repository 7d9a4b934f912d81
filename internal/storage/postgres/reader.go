package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM payment_methods WHERE user_id = $1 AND is_active ORDER BY seq`, owner)
	if err != nil {
		return nil, classify("list accounts", err)
	}
	out, err := collect(rows, scanAccount)
	return out, classify("list accounts", err)
}

func (s *Store) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name`, owner)
	if err != nil {
		return nil, classify("list categories", err)
	}
	out, err := collect(rows, scanCategory)
	return out, classify("list categories", err)
}

func (s *Store) CountCategories(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, owner).Scan(&n)
	return n, classify("count categories", err)
}

func (s *Store) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2 AND `+storage.ActiveTransaction,
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

	rows, err := s.pool.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	out, err := collect(rows, scanTransaction)
	return out, classify("list transactions", err)
}

func (s *Store) CountTransactions(ctx context.Context, owner string, f core.TransactionFilter) (int64, error) {
	args := storage.NewArgs(dialect)
	where := storage.TransactionWhere(args, owner, f)

	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args.Values()...).Scan(&n)
	return n, classify("count transactions", err)
}

func (s *Store) SumExpenses(ctx context.Context, w core.SpendWindow) (core.Money, error) {
	args := storage.NewArgs(dialect)
	where := storage.SpendWhere(args, w)

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM transactions WHERE `+where, args.Values()...).Scan(&total)
	return core.Money{Cents: total}, classify("sum expenses", err)
}

func (s *Store) CategoryTotals(ctx context.Context, owner string, from, to *time.Time) ([]core.CategoryTotal, error) {
	args := storage.NewArgs(dialect)
	where := storage.PeriodWhere(args, owner, from, to)
	rows, err := s.pool.Query(ctx,
		`SELECT category_id, type, SUM(amount_cents)::bigint, COUNT(*) FROM transactions WHERE `+where+
			` GROUP BY category_id, type ORDER BY category_id`, args.Values()...)
	if err != nil {
		return nil, classify("category totals", err)
	}
	out, err := collect(rows, func(row scanner) (core.CategoryTotal, error) {
		var (
			ct  core.CategoryTotal
			typ string
		)
		err := row.Scan(&ct.CategoryID, &typ, &ct.Total.Cents, &ct.Count)
		ct.Type = core.TransactionType(typ)
		return ct, err
	})
	return out, classify("category totals", err)
}

func (s *Store) GetBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2 AND is_active`, id, owner)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, classify("get budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND is_active ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, classify("list budgets", err)
	}
	out, err := collect(rows, scanBudget)
	return out, classify("list budgets", err)
}
