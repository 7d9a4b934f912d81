package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// statusConcurrency bounds parallel spent computations in ListBudgets.
const statusConcurrency = 4

// BudgetService manages budgets. Spent amounts are recomputed from the
// ledger on every read and never stored.
type BudgetService struct {
	base
}

type NewBudget struct {
	Name       string
	Amount     core.Money
	PeriodType core.PeriodType
	StartDate  time.Time
	EndDate    *time.Time
	CategoryID string
}

func NewBudgetService(store storage.Store, opts Options) *BudgetService {
	return &BudgetService{base: newBase(store, opts.withDefaults(), log.ComponentBudget)}
}

func (s *BudgetService) CreateBudget(ctx context.Context, owner string, in NewBudget) (core.BudgetView, error) {
	now := s.now()
	b := core.Budget{
		ID:         newID(),
		Owner:      owner,
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		PeriodType: in.PeriodType,
		StartDate:  core.NormalizeInstant(in.StartDate),
		CategoryID: in.CategoryID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.EndDate != nil {
		end := core.NormalizeInstant(*in.EndDate)
		b.EndDate = &end
	}
	if err := b.Validate(); err != nil {
		return core.BudgetView{}, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := checkBudgetCategory(ctx, tx, b); err != nil {
			return err
		}
		return tx.InsertBudget(ctx, b)
	})
	if err != nil {
		return core.BudgetView{}, s.fail(ctx, "create budget", err)
	}

	s.logger.InfoContext(ctx, "Budget created",
		log.FieldOwner, owner,
		log.FieldBudget, b.ID,
		log.FieldAmountCents, b.Amount.Cents)
	return s.view(ctx, b)
}

func (s *BudgetService) UpdateBudget(ctx context.Context, owner, id string, patch core.BudgetPatch) (core.BudgetView, error) {
	if patch.IsEmpty() {
		return core.BudgetView{}, core.ErrEmptyPatch
	}
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		patch.Name = &n
	}

	var updated core.Budget
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := tx.LockBudget(ctx, owner, id)
		if err != nil {
			return err
		}
		candidate := patch.Apply(old)
		candidate.UpdatedAt = s.now()
		if err := candidate.Validate(); err != nil {
			return err
		}
		if candidate.CategoryID != old.CategoryID {
			if err := checkBudgetCategory(ctx, tx, candidate); err != nil {
				return err
			}
		}
		if err := tx.UpdateBudget(ctx, candidate); err != nil {
			return err
		}
		updated = candidate
		return nil
	})
	if err != nil {
		return core.BudgetView{}, s.fail(ctx, "update budget", err)
	}

	s.logger.InfoContext(ctx, "Budget updated", log.FieldOwner, owner, log.FieldBudget, id)
	return s.view(ctx, updated)
}

// DeleteBudget soft-deletes a budget.
func (s *BudgetService) DeleteBudget(ctx context.Context, owner, id string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		b, err := tx.LockBudget(ctx, owner, id)
		if err != nil {
			return err
		}
		b.IsActive = false
		b.UpdatedAt = s.now()
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		return s.fail(ctx, "delete budget", err)
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldOwner, owner, log.FieldBudget, id)
	return nil
}

func (s *BudgetService) GetBudget(ctx context.Context, owner, id string) (core.BudgetView, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	b, err := s.store.GetBudget(ctx, owner, id)
	if err != nil {
		return core.BudgetView{}, s.fail(ctx, "get budget", err)
	}
	return s.view(ctx, b)
}

// ListBudgets returns the owner's active budgets, newest first, each with
// its current status.
func (s *BudgetService) ListBudgets(ctx context.Context, owner string) ([]core.BudgetView, error) {
	if owner == "" {
		return nil, core.ErrMissingOwner
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	budgets, err := s.store.ListBudgets(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "list budgets", err)
	}

	views := make([]core.BudgetView, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, b := range budgets {
		g.Go(func() error {
			st, err := s.Status(gctx, b)
			if err != nil {
				return err
			}
			views[i] = core.BudgetView{Budget: b, Status: st}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// ComputeSpent sums the active expense transactions inside the budget's
// window and category scope. The result is never negative.
func (s *BudgetService) ComputeSpent(ctx context.Context, b core.Budget) (core.Money, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	spent, err := s.store.SumExpenses(ctx, b.Window())
	if err != nil {
		return core.Money{}, s.fail(ctx, "compute spent", err)
	}
	return spent, nil
}

// Status reports spent, remaining and percentage consumed.
func (s *BudgetService) Status(ctx context.Context, b core.Budget) (core.BudgetStatus, error) {
	spent, err := s.ComputeSpent(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.NewBudgetStatus(b.Amount, spent), nil
}

func (s *BudgetService) view(ctx context.Context, b core.Budget) (core.BudgetView, error) {
	st, err := s.Status(ctx, b)
	if err != nil {
		return core.BudgetView{}, err
	}
	return core.BudgetView{Budget: b, Status: st}, nil
}

func checkBudgetCategory(ctx context.Context, tx storage.Tx, b core.Budget) error {
	if b.CategoryID == "" {
		return nil
	}
	cat, err := tx.GetCategory(ctx, b.Owner, b.CategoryID)
	if err != nil {
		return err
	}
	if cat.Type != core.CategoryExpense {
		return core.ErrBudgetCategoryType
	}
	return nil
}
