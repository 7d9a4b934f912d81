package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/storage"
	"saldo/internal/storage/memory"
	"saldo/internal/storage/sqlite"
)

const (
	owner      = "6f1d2c1e-5b7a-4c1e-9a40-000000000001"
	otherOwner = "6f1d2c1e-5b7a-4c1e-9a40-000000000002"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Event
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  storage.Store
	svc    *Services
	events *recordingPublisher
}

type backend struct {
	name string
	open func(t *testing.T) storage.Store
}

var backends = []backend{
	{"memory", func(*testing.T) storage.Store { return memory.New() }},
	{"sqlite", func(t *testing.T) storage.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "saldo.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	}},
}

// forEachBackend runs fn once per in-process store.
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			t.Cleanup(func() { store.Close() })
			events := &recordingPublisher{}
			fn(t, &fixture{
				t:      t,
				ctx:    context.Background(),
				store:  store,
				svc:    New(store, events, Options{StoreTimeout: 10 * time.Second}),
				events: events,
			})
		})
	}
}

func day(s string) time.Time {
	d, err := core.ParseInstant(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) account(name string, cents int64) core.Account {
	f.t.Helper()
	a, err := f.svc.Accounts.CreateAccount(f.ctx, owner, NewAccount{Name: name, Kind: core.AccountCash, InitialBalance: core.Money{Cents: cents}})
	if err != nil {
		f.t.Fatalf("create account %s: %v", name, err)
	}
	return a
}

func (f *fixture) category(name string, typ core.CategoryType, parent string) core.Category {
	f.t.Helper()
	c, err := f.svc.Categories.CreateCategory(f.ctx, owner, NewCategory{Name: name, Type: typ, ParentID: parent})
	if err != nil {
		f.t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func (f *fixture) create(in NewTransaction) core.Transaction {
	f.t.Helper()
	tx, err := f.svc.Ledger.Create(f.ctx, owner, in)
	if err != nil {
		f.t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func (f *fixture) expense(acc, cat string, cents int64, date string) core.Transaction {
	f.t.Helper()
	return f.create(NewTransaction{Type: core.TypeExpense, Amount: core.Money{Cents: cents}, Date: day(date), CategoryID: cat, FromAccountID: acc})
}

func (f *fixture) balance(accountID string) int64 {
	f.t.Helper()
	accounts, err := f.svc.Accounts.ListAccounts(f.ctx, owner)
	if err != nil {
		f.t.Fatalf("list accounts: %v", err)
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a.CurrentBalance.Cents
		}
	}
	f.t.Fatalf("account %s not listed", accountID)
	return 0
}

func (f *fixture) wantBalance(accountID string, want int64) {
	f.t.Helper()
	if got := f.balance(accountID); got != want {
		f.t.Errorf("balance of %s = %d, want %d", accountID, got, want)
	}
}

// allTransactions pages through every active transaction matching filter.
func (f *fixture) allTransactions(filter core.TransactionFilter) []core.Transaction {
	f.t.Helper()
	var out []core.Transaction
	filter.Limit = 7
	for filter.Offset = 0; ; filter.Offset += filter.Limit {
		page, err := f.svc.Query.ListTransactions(f.ctx, owner, filter)
		if err != nil {
			f.t.Fatalf("list transactions: %v", err)
		}
		out = append(out, page...)
		if len(page) < filter.Limit {
			return out
		}
	}
}

// checkConservation asserts current = initial + effects of active transactions
// for every account.
func (f *fixture) checkConservation() {
	f.t.Helper()
	accounts, err := f.svc.Accounts.ListAccounts(f.ctx, owner)
	if err != nil {
		f.t.Fatalf("list accounts: %v", err)
	}
	expected := map[string]int64{}
	for _, a := range accounts {
		expected[a.ID] = a.InitialBalance.Cents
	}
	for _, tx := range f.allTransactions(core.TransactionFilter{}) {
		for _, e := range core.Effects(tx) {
			expected[e.AccountID] += e.Delta.Cents
		}
	}
	for _, a := range accounts {
		if a.CurrentBalance.Cents != expected[a.ID] {
			f.t.Fatalf("conservation broken for %s: current %d, derived %d", a.Name, a.CurrentBalance.Cents, expected[a.ID])
		}
	}
}

func wantKind(t *testing.T, err error, kind core.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := core.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = fn(); !errors.Is(err, core.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return err
}
