package core

import (
	"sort"
	"time"
)

// CategoryTotal is the sum of active transactions of one type in one category.
type CategoryTotal struct {
	CategoryID string
	Type       TransactionType
	Total      Money
	Count      int64
}

// CategoryAmount is a rolled-up amount for a top-level category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Amount     Money
	Children   []CategoryAmount
}

// Summary aggregates income and expense over a period.
type Summary struct {
	From       *time.Time
	To         *time.Time
	Income     Money
	Expense    Money
	Net        Money
	ByCategory []CategoryAmount // expense only, largest first
}

// RollupExpenses folds per-category expense totals into their top-level
// parents. Totals for categories missing from cats are reported under their id.
func RollupExpenses(totals []CategoryTotal, cats []Category) []CategoryAmount {
	byID := make(map[string]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	roots := make(map[string]*CategoryAmount)
	rootOf := func(id string) *CategoryAmount {
		if r, ok := roots[id]; ok {
			return r
		}
		r := &CategoryAmount{CategoryID: id, Name: byID[id].Name}
		if r.Name == "" {
			r.Name = id
		}
		roots[id] = r
		return r
	}

	for _, t := range totals {
		if t.Type != TypeExpense {
			continue
		}
		c, known := byID[t.CategoryID]
		if known && c.ParentID != "" {
			parent := rootOf(c.ParentID)
			parent.Amount = parent.Amount.Add(t.Total)
			parent.Children = append(parent.Children, CategoryAmount{
				CategoryID: c.ID,
				Name:       c.Name,
				Amount:     t.Total,
			})
			continue
		}
		root := rootOf(t.CategoryID)
		root.Amount = root.Amount.Add(t.Total)
	}

	out := make([]CategoryAmount, 0, len(roots))
	for _, r := range roots {
		sort.Slice(r.Children, func(i, j int) bool { return r.Children[i].Amount.Cents > r.Children[j].Amount.Cents })
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
