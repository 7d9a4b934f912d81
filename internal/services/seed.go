package services

import (
	"context"

	"saldo/internal/core"
	"saldo/internal/log"
)

// SeedResult lists what SeedDefaults created.
type SeedResult struct {
	Accounts   []core.Account
	Categories []core.Category
}

// SeedDefaults gives a new owner a starter set: a cash account, a bank
// account, an expense tree and an income category.
func (s *Services) SeedDefaults(ctx context.Context, owner string) (SeedResult, error) {
	var res SeedResult

	for _, in := range []NewAccount{
		{Name: "Cash", Kind: core.AccountCash, InitialBalance: core.Money{Cents: 10000}, Icon: "💵", Color: "#10B981"},
		{Name: "Bank Account", Kind: core.AccountBank, InitialBalance: core.Money{Cents: 100000}, Icon: "🏦", Color: "#3B82F6"},
	} {
		a, err := s.Accounts.CreateAccount(ctx, owner, in)
		if err != nil {
			return res, err
		}
		res.Accounts = append(res.Accounts, a)
	}

	food, err := s.Categories.CreateCategory(ctx, owner, NewCategory{Name: "Food & Dining", Type: core.CategoryExpense, Icon: "🍽️", Color: "#EF4444"})
	if err != nil {
		return res, err
	}
	groceries, err := s.Categories.CreateCategory(ctx, owner, NewCategory{Name: "Groceries", Type: core.CategoryExpense, ParentID: food.ID, Icon: "🛒", Color: "#F97316"})
	if err != nil {
		return res, err
	}
	salary, err := s.Categories.CreateCategory(ctx, owner, NewCategory{Name: "Salary", Type: core.CategoryIncome, Icon: "💼", Color: "#22C55E"})
	if err != nil {
		return res, err
	}
	res.Categories = []core.Category{food, groceries, salary}

	log.FromContext(ctx).InfoContext(ctx, "Seeded default data",
		log.FieldOwner, owner,
		log.FieldOperation, log.OpSeed,
		"accounts", len(res.Accounts),
		"categories", len(res.Categories))
	return res, nil
}
