package storage

import (
	"strings"
	"time"

	"saldo/internal/core"
)

// Dialect describes how a SQL backend spells bind parameters and instants.
type Dialect struct {
	Placeholder func(n int) string
	Instant     func(t time.Time) any
}

// Args accumulates bind values for one statement.
type Args struct {
	dialect Dialect
	values  []any
}

func NewArgs(d Dialect) *Args {
	return &Args{dialect: d}
}

// Bind appends v and returns its placeholder.
func (a *Args) Bind(v any) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

// BindInstant binds t in the dialect's instant encoding.
func (a *Args) BindInstant(t time.Time) string {
	return a.Bind(a.dialect.Instant(core.NormalizeInstant(t)))
}

func (a *Args) Values() []any {
	return a.values
}

// ActiveTransaction is the visibility predicate every transaction read uses.
const ActiveTransaction = "status = 'active'"

// TransactionWhere renders the filter predicate shared by listing and
// counting, so both always see the same rows. f must be normalized.
func TransactionWhere(a *Args, owner string, f core.TransactionFilter) string {
	clauses := []string{"user_id = " + a.Bind(owner), ActiveTransaction}
	if f.Type != "" {
		clauses = append(clauses, "type = "+a.Bind(string(f.Type)))
	}
	if f.CategoryID != "" {
		clauses = append(clauses, "category_id = "+a.Bind(f.CategoryID))
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "transaction_date >= "+a.BindInstant(*f.DateFrom))
	}
	if f.DateTo != nil {
		clauses = append(clauses, "transaction_date <= "+a.BindInstant(*f.DateTo))
	}
	return strings.Join(clauses, " AND ")
}

// SpendWhere renders the budget consumption predicate.
func SpendWhere(a *Args, w core.SpendWindow) string {
	clauses := []string{
		"user_id = " + a.Bind(w.Owner),
		ActiveTransaction,
		"type = " + a.Bind(string(core.TypeExpense)),
		"transaction_date >= " + a.BindInstant(w.From),
	}
	if w.To != nil {
		clauses = append(clauses, "transaction_date <= "+a.BindInstant(*w.To))
	}
	if w.CategoryID != "" {
		clauses = append(clauses, "category_id = "+a.Bind(w.CategoryID))
	}
	return strings.Join(clauses, " AND ")
}

// PeriodWhere renders the report predicate over an optional date range.
func PeriodWhere(a *Args, owner string, from, to *time.Time) string {
	clauses := []string{"user_id = " + a.Bind(owner), ActiveTransaction, "type <> " + a.Bind(string(core.TypeTransfer))}
	if from != nil {
		clauses = append(clauses, "transaction_date >= "+a.BindInstant(*from))
	}
	if to != nil {
		clauses = append(clauses, "transaction_date <= "+a.BindInstant(*to))
	}
	return strings.Join(clauses, " AND ")
}

// TransactionOrder is the listing order: newest date first, then insertion.
const TransactionOrder = "ORDER BY transaction_date DESC, seq ASC"
