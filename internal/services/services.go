// Package services implements the ledger, budget and query operations on top
// of a storage.Store. Every operation takes the owner explicitly.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// EventPublisher receives ledger events after commit. *amqp.Client
// implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Options tunes the services. Zero values select defaults.
type Options struct {
	Logger           *log.Logger
	StoreTimeout     time.Duration
	MaxPageSize      int
	CategoryCacheTTL time.Duration
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = core.MaxPageSize
	}
	if o.CategoryCacheTTL <= 0 {
		o.CategoryCacheTTL = 5 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// base carries what every service needs.
type base struct {
	store   storage.Store
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time
}

func newBase(store storage.Store, opts Options, component string) base {
	return base{
		store:   store,
		logger:  opts.Logger.WithComponent(component),
		timeout: opts.StoreTimeout,
		now:     func() time.Time { return core.NormalizeInstant(opts.Now()) },
	}
}

// storeCtx bounds a store call by the configured timeout, so a stalled store
// surfaces as StoreUnavailable instead of blocking the caller.
func (b *base) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// fail classifies err for the caller. Unclassified errors become opaque
// internal errors and are logged with their cause.
func (b *base) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if core.KindOf(err) != core.KindUnavailable {
			err = core.Unavailable(err)
		}
	}
	switch core.KindOf(err) {
	case core.KindValidation, core.KindNotFound:
		return err
	case core.KindConflict, core.KindUnavailable:
		b.logger.WarnContext(ctx, "Store rejected operation", log.FieldOperation, op, log.FieldError, err)
		return err
	}
	b.logger.ErrorContext(ctx, "Operation failed", log.FieldOperation, op, log.FieldError, err)
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	return core.Internal(op, err)
}

func newID() string {
	return uuid.NewString()
}

// Services bundles every service over one store.
type Services struct {
	Accounts   *AccountService
	Categories *CategoryService
	Ledger     *LedgerService
	Query      *QueryService
	Budgets    *BudgetService
	Reports    *ReportService
}

// New wires all services. events may be nil.
func New(store storage.Store, events EventPublisher, opts Options) *Services {
	opts = opts.withDefaults()
	categories := NewCategoryService(store, opts)
	return &Services{
		Accounts:   NewAccountService(store, opts),
		Categories: categories,
		Ledger:     NewLedgerService(store, events, opts),
		Query:      NewQueryService(store, opts),
		Budgets:    NewBudgetService(store, opts),
		Reports:    NewReportService(store, categories, opts),
	}
}
