package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// QueryService serves filtered, paginated transaction listings. Listing and
// counting normalize the filter the same way and share one store predicate.
type QueryService struct {
	base
	maxPageSize int
}

func NewQueryService(store storage.Store, opts Options) *QueryService {
	opts = opts.withDefaults()
	return &QueryService{
		base:        newBase(store, opts, log.ComponentQuery),
		maxPageSize: opts.MaxPageSize,
	}
}

func (s *QueryService) normalize(owner string, f core.TransactionFilter) (core.TransactionFilter, error) {
	if owner == "" {
		return f, core.ErrMissingOwner
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f.Normalize(s.maxPageSize), nil
}

func (s *QueryService) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	f, err := s.normalize(owner, f)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, err := s.store.ListTransactions(ctx, owner, f)
	if err != nil {
		return nil, s.fail(ctx, "list transactions", err)
	}
	return items, nil
}

// CountTransactions ignores Limit and Offset.
func (s *QueryService) CountTransactions(ctx context.Context, owner string, f core.TransactionFilter) (int64, error) {
	f, err := s.normalize(owner, f)
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.store.CountTransactions(ctx, owner, f)
	if err != nil {
		return 0, s.fail(ctx, "count transactions", err)
	}
	return n, nil
}

// Page fetches one page and the total count concurrently.
func (s *QueryService) Page(ctx context.Context, owner string, f core.TransactionFilter) (core.Page, error) {
	f, err := s.normalize(owner, f)
	if err != nil {
		return core.Page{}, err
	}

	page := core.Page{Limit: f.Limit, Offset: f.Offset}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.ListTransactions(gctx, owner, f)
		page.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.CountTransactions(gctx, owner, f)
		page.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Page{}, err
	}
	return page, nil
}
