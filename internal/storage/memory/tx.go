package memory

import (
	"context"
	"time"

	"saldo/internal/core"
)

// tx mutates the live state and keeps one undo step per write.
type tx struct {
	st   *state
	undo []func()
}

// remember records how to restore m[key] to its current value, or to absent.
func remember[V any](t *tx, m map[string]V, key string) {
	prev, had := m[key]
	t.undo = append(t.undo, func() {
		if had {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) InsertAccount(_ context.Context, a core.Account) error {
	if _, exists := t.st.accounts[a.ID]; exists {
		return core.Conflictf("account %s already exists", a.ID)
	}
	remember(t, t.st.accounts, a.ID)
	n := len(t.st.accountOrder)
	t.undo = append(t.undo, func() { t.st.accountOrder = t.st.accountOrder[:n] })
	t.st.accounts[a.ID] = a
	t.st.accountOrder = append(t.st.accountOrder, a.ID)
	return nil
}

func (t *tx) GetAccount(_ context.Context, owner, id string) (core.Account, error) {
	a, ok := t.st.accounts[id]
	if !ok || a.Owner != owner || !a.IsActive {
		return core.Account{}, core.NotFound("payment method", id)
	}
	return a, nil
}

func (t *tx) AdjustBalance(ctx context.Context, owner, id string, delta core.Money) error {
	a, err := t.GetAccount(ctx, owner, id)
	if err != nil {
		return err
	}
	remember(t, t.st.accounts, id)
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	t.st.accounts[id] = a
	return nil
}

func (t *tx) DeactivateAccount(ctx context.Context, owner, id string) error {
	a, err := t.GetAccount(ctx, owner, id)
	if err != nil {
		return err
	}
	remember(t, t.st.accounts, id)
	a.IsActive = false
	t.st.accounts[id] = a
	return nil
}

func (t *tx) CountAccountTransactions(_ context.Context, owner, id string) (int64, error) {
	var n int64
	for _, tr := range t.st.transactions {
		if tr.Owner == owner && tr.IsActive() && (tr.FromAccountID == id || tr.ToAccountID == id) {
			n++
		}
	}
	return n, nil
}

func (t *tx) InsertCategory(_ context.Context, c core.Category) error {
	if _, exists := t.st.categories[c.ID]; exists {
		return core.Conflictf("category %s already exists", c.ID)
	}
	remember(t, t.st.categories, c.ID)
	t.st.categories[c.ID] = c
	return nil
}

func (t *tx) GetCategory(_ context.Context, owner, id string) (core.Category, error) {
	c, ok := t.st.categories[id]
	if !ok || c.Owner != owner {
		return core.Category{}, core.NotFound("category", id)
	}
	return c, nil
}

func (t *tx) InsertTransaction(_ context.Context, tr *core.Transaction) error {
	if _, exists := t.st.transactions[tr.ID]; exists {
		return core.Conflictf("transaction %s already exists", tr.ID)
	}
	remember(t, t.st.transactions, tr.ID)
	seq := t.st.seq
	t.undo = append(t.undo, func() { t.st.seq = seq })
	t.st.seq++
	tr.Seq = t.st.seq
	t.st.transactions[tr.ID] = *tr
	return nil
}

func (t *tx) LockTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	return t.st.activeTransaction(owner, id)
}

func (t *tx) UpdateTransaction(_ context.Context, tr core.Transaction) error {
	cur, err := t.st.activeTransaction(tr.Owner, tr.ID)
	if err != nil {
		return err
	}
	remember(t, t.st.transactions, tr.ID)
	tr.Seq = cur.Seq
	tr.CreatedAt = cur.CreatedAt
	t.st.transactions[tr.ID] = tr
	return nil
}

func (t *tx) MarkTransactionDeleted(_ context.Context, owner, id string, at time.Time) error {
	cur, err := t.st.activeTransaction(owner, id)
	if err != nil {
		return err
	}
	remember(t, t.st.transactions, id)
	cur.Status = core.StatusDeleted
	cur.UpdatedAt = at
	t.st.transactions[id] = cur
	return nil
}

func (t *tx) InsertBudget(_ context.Context, b core.Budget) error {
	if _, exists := t.st.budgets[b.ID]; exists {
		return core.Conflictf("budget %s already exists", b.ID)
	}
	remember(t, t.st.budgets, b.ID)
	t.st.budgets[b.ID] = b
	return nil
}

func (t *tx) LockBudget(_ context.Context, owner, id string) (core.Budget, error) {
	return t.st.activeBudget(owner, id)
}

func (t *tx) UpdateBudget(_ context.Context, b core.Budget) error {
	cur, ok := t.st.budgets[b.ID]
	if !ok || cur.Owner != b.Owner {
		return core.NotFound("budget", b.ID)
	}
	remember(t, t.st.budgets, b.ID)
	b.CreatedAt = cur.CreatedAt
	t.st.budgets[b.ID] = b
	return nil
}
