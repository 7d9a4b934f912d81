package core

import "time"

// TransactionPatch is a partial update. Nil fields are left unchanged. For
// CategoryID and ToAccountID a pointer to "" clears the field.
type TransactionPatch struct {
	Type          *TransactionType
	Amount        *Money
	Description   *string
	Date          *time.Time
	CategoryID    *string
	FromAccountID *string
	ToAccountID   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Amount == nil && p.Description == nil && p.Date == nil &&
		p.CategoryID == nil && p.FromAccountID == nil && p.ToAccountID == nil
}

// Apply merges the patch into t and returns the candidate. When the type
// changes, a field the new type forbids is cleared unless the patch sets it
// explicitly, in which case validation reports it.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	out := t
	if p.Type != nil {
		out.Type = *p.Type
		if out.Type != t.Type {
			if out.Type == TypeTransfer && p.CategoryID == nil {
				out.CategoryID = ""
			}
			if out.Type != TypeTransfer && p.ToAccountID == nil {
				out.ToAccountID = ""
			}
		}
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Date != nil {
		out.Date = NormalizeInstant(*p.Date)
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.FromAccountID != nil {
		out.FromAccountID = *p.FromAccountID
	}
	if p.ToAccountID != nil {
		out.ToAccountID = *p.ToAccountID
	}
	return out
}

// BudgetPatch is a partial budget update. A pointer to a nil *time.Time
// clears EndDate and a pointer to "" clears CategoryID.
type BudgetPatch struct {
	Name       *string
	Amount     *Money
	PeriodType *PeriodType
	StartDate  *time.Time
	EndDate    **time.Time
	CategoryID *string
}

func (p BudgetPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.PeriodType == nil && p.StartDate == nil &&
		p.EndDate == nil && p.CategoryID == nil
}

func (p BudgetPatch) Apply(b Budget) Budget {
	out := b
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.PeriodType != nil {
		out.PeriodType = *p.PeriodType
	}
	if p.StartDate != nil {
		out.StartDate = NormalizeInstant(*p.StartDate)
	}
	if p.EndDate != nil {
		if *p.EndDate == nil {
			out.EndDate = nil
		} else {
			end := NormalizeInstant(**p.EndDate)
			out.EndDate = &end
		}
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	return out
}
