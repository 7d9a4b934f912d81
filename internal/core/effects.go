package core

import "sort"

// Effect is a signed change to one account's current balance.
type Effect struct {
	AccountID string
	Delta     Money
}

// Effects returns the balance effect of an active transaction:
//
//	income   +amount on the source account
//	expense  -amount on the source account
//	transfer -amount on the source, +amount on the destination
//
// Deleted transactions have no effect.
func Effects(t Transaction) []Effect {
	if t.Status == StatusDeleted {
		return nil
	}
	switch t.Type {
	case TypeIncome:
		return []Effect{{AccountID: t.FromAccountID, Delta: t.Amount}}
	case TypeExpense:
		return []Effect{{AccountID: t.FromAccountID, Delta: t.Amount.Neg()}}
	case TypeTransfer:
		return []Effect{
			{AccountID: t.FromAccountID, Delta: t.Amount.Neg()},
			{AccountID: t.ToAccountID, Delta: t.Amount},
		}
	}
	return nil
}

// Reverse negates every effect.
func Reverse(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}

// NetEffects folds the effect lists into one delta per account, dropping
// zero deltas. The result is ordered by account id so concurrent units of work
// acquire account locks in the same order.
func NetEffects(lists ...[]Effect) []Effect {
	totals := make(map[string]Money)
	for _, list := range lists {
		for _, e := range list {
			totals[e.AccountID] = totals[e.AccountID].Add(e.Delta)
		}
	}
	out := make([]Effect, 0, len(totals))
	for id, delta := range totals {
		if delta.IsZero() {
			continue
		}
		out = append(out, Effect{AccountID: id, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// ReconcileEffects returns the net deltas that move the balances from the
// state reflecting old to the state reflecting updated.
func ReconcileEffects(old, updated Transaction) []Effect {
	return NetEffects(Reverse(Effects(old)), Effects(updated))
}
