package core

import "time"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	Limit      int
	Offset     int
	Type       TransactionType
	CategoryID string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Normalize clamps paging and widens a bare DateTo to the end of its day so
// same-day transactions are included. maxLimit <= 0 uses MaxPageSize.
func (f TransactionFilter) Normalize(maxLimit int) TransactionFilter {
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	out := f
	switch {
	case out.Limit <= 0:
		out.Limit = min(DefaultPageSize, maxLimit)
	case out.Limit > maxLimit:
		out.Limit = maxLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	if out.DateFrom != nil {
		from := NormalizeInstant(*out.DateFrom)
		out.DateFrom = &from
	}
	if out.DateTo != nil {
		to := NormalizeInstant(*out.DateTo)
		if IsBareDate(to) {
			to = EndOfDay(to)
		}
		out.DateTo = &to
	}
	return out
}

// Validate rejects filter values that can never match.
func (f TransactionFilter) Validate() error {
	if f.Type != "" && !f.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// Matches is the row predicate shared by every in-memory read path: owned by
// owner, active, and inside every set filter. Paging is not applied here.
func (f TransactionFilter) Matches(owner string, t Transaction) bool {
	if t.Owner != owner || t.Status != StatusActive {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// Less orders transactions newest date first, ties by insertion order.
func Less(a, b Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Seq < b.Seq
}

// Page describes one page of a listing.
type Page struct {
	Items  []Transaction
	Total  int64
	Limit  int
	Offset int
}

// Pages returns the number of pages needed for Total at Limit per page.
func (p Page) Pages() int64 {
	if p.Limit <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
}
