// Package storage defines the persistence ports of the ledger and the pieces
// shared by the SQL-backed stores.
package storage

import (
	"context"
	"time"

	"saldo/internal/core"
)

// Reader is the read side used by queries, budgets and reports. Reads never
// return soft-deleted transactions or inactive accounts and budgets.
type Reader interface {
	ListAccounts(ctx context.Context, owner string) ([]core.Account, error)
	ListCategories(ctx context.Context, owner string) ([]core.Category, error)
	// CountCategories counts the owner's categories. Categories are never
	// removed, so the count changes exactly when the listing does.
	CountCategories(ctx context.Context, owner string) (int64, error)
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	// ListTransactions expects a normalized filter and applies its paging.
	ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, owner string, f core.TransactionFilter) (int64, error)
	SumExpenses(ctx context.Context, w core.SpendWindow) (core.Money, error)
	CategoryTotals(ctx context.Context, owner string, from, to *time.Time) ([]core.CategoryTotal, error)
	GetBudget(ctx context.Context, owner, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, owner string) ([]core.Budget, error)
}

// Tx is one atomic unit of work. Lookups return core.NotFound for rows that
// are missing, owned by someone else, or soft-deleted.
type Tx interface {
	InsertAccount(ctx context.Context, a core.Account) error
	GetAccount(ctx context.Context, owner, id string) (core.Account, error)
	// AdjustBalance applies current_balance += delta on an active account.
	AdjustBalance(ctx context.Context, owner, id string, delta core.Money) error
	DeactivateAccount(ctx context.Context, owner, id string) error
	CountAccountTransactions(ctx context.Context, owner, id string) (int64, error)

	InsertCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, owner, id string) (core.Category, error)

	// InsertTransaction persists t and assigns t.Seq.
	InsertTransaction(ctx context.Context, t *core.Transaction) error
	// LockTransaction loads an active transaction and holds it until the unit
	// of work ends.
	LockTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	MarkTransactionDeleted(ctx context.Context, owner, id string, at time.Time) error

	InsertBudget(ctx context.Context, b core.Budget) error
	LockBudget(ctx context.Context, owner, id string) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
}

// Store is a complete backend.
type Store interface {
	Reader
	// WithinTx runs fn as one unit of work. The unit commits only when fn
	// returns nil; errors, panics and context cancellation roll it back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
