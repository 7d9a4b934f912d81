package services

import (
	"context"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// ReportService builds period summaries from the ledger.
type ReportService struct {
	base
	categories *CategoryService
}

func NewReportService(store storage.Store, categories *CategoryService, opts Options) *ReportService {
	return &ReportService{
		base:       newBase(store, opts.withDefaults(), log.ComponentReport),
		categories: categories,
	}
}

// Summary totals income and expense over [from, to] and rolls expense
// categories up into their parents. A bare-date to covers its whole day.
func (s *ReportService) Summary(ctx context.Context, owner string, from, to *time.Time) (core.Summary, error) {
	if owner == "" {
		return core.Summary{}, core.ErrMissingOwner
	}
	f := core.TransactionFilter{DateFrom: from, DateTo: to}.Normalize(0)
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return core.Summary{}, core.ErrEndBeforeStart
	}

	cats, err := s.categories.ListCategories(ctx, owner)
	if err != nil {
		return core.Summary{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	totals, err := s.store.CategoryTotals(sctx, owner, f.DateFrom, f.DateTo)
	if err != nil {
		return core.Summary{}, s.fail(ctx, "summary", err)
	}

	sum := core.Summary{From: f.DateFrom, To: f.DateTo}
	for _, t := range totals {
		switch t.Type {
		case core.TypeIncome:
			sum.Income = sum.Income.Add(t.Total)
		case core.TypeExpense:
			sum.Expense = sum.Expense.Add(t.Total)
		}
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	sum.ByCategory = core.RollupExpenses(totals, cats)
	return sum, nil
}
