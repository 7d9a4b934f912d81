// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type state struct {
	accounts     map[string]core.Account
	accountOrder []string
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	seq          int64
}

// Store keeps everything in maps behind one mutex. A unit of work holds the
// mutex for its whole duration, writes in place and records an undo entry per
// write, which are replayed in reverse when the unit fails.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: &state{
		accounts:     map[string]core.Account{},
		categories:   map[string]core.Category{},
		transactions: map[string]core.Transaction{},
		budgets:      map[string]core.Budget{},
	}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return core.Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{st: s.st}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, t); err != nil {
		t.rollback()
		return err
	}
	if cerr := ctx.Err(); cerr != nil {
		t.rollback()
		return core.Unavailable(cerr)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) ListAccounts(_ context.Context, owner string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, id := range s.st.accountOrder {
		a := s.st.accounts[id]
		if a.Owner == owner && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, owner string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.st.categories {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CountCategories(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.st.categories {
		if c.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.activeTransaction(owner, id)
}

func (s *Store) matching(owner string, f core.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.st.transactions {
		if f.Matches(owner, t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) ListTransactions(_ context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.matching(owner, f)
	sort.Slice(rows, func(i, j int) bool { return core.Less(rows[i], rows[j]) })
	if f.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[f.Offset:]
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

func (s *Store) CountTransactions(_ context.Context, owner string, f core.TransactionFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(owner, f))), nil
}

func (s *Store) SumExpenses(_ context.Context, w core.SpendWindow) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, t := range s.st.transactions {
		if w.Matches(t) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (s *Store) CategoryTotals(_ context.Context, owner string, from, to *time.Time) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		cat string
		typ core.TransactionType
	}
	sums := map[key]*core.CategoryTotal{}
	f := core.TransactionFilter{DateFrom: from, DateTo: to}
	for _, t := range s.st.transactions {
		if t.Type == core.TypeTransfer || !f.Matches(owner, t) {
			continue
		}
		k := key{t.CategoryID, t.Type}
		ct, ok := sums[k]
		if !ok {
			ct = &core.CategoryTotal{CategoryID: t.CategoryID, Type: t.Type}
			sums[k] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}
	out := make([]core.CategoryTotal, 0, len(sums))
	for _, ct := range sums {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, owner, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.activeBudget(owner, id)
}

func (s *Store) ListBudgets(_ context.Context, owner string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.st.budgets {
		if b.Owner == owner && b.IsActive {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (st *state) activeTransaction(owner, id string) (core.Transaction, error) {
	t, ok := st.transactions[id]
	if !ok || t.Owner != owner || !t.IsActive() {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	return t, nil
}

func (st *state) activeBudget(owner, id string) (core.Budget, error) {
	b, ok := st.budgets[id]
	if !ok || b.Owner != owner || !b.IsActive {
		return core.Budget{}, core.NotFound("budget", id)
	}
	return b, nil
}
