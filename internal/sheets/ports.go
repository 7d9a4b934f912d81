// Package sheets mirrors committed ledger activity into a spreadsheet.
package sheets

import (
	"context"
	"time"

	"saldo/internal/core"
)

// ActivityRow is one line of the activity log. Rows are appended and never
// rewritten, so an update or delete shows up as a new line.
type ActivityRow struct {
	Timestamp     time.Time
	Event         string
	Owner         string
	TransactionID string
	Type          string
	Date          time.Time
	Description   string
	Amount        core.Money
	CategoryID    string
	FromAccountID string
	ToAccountID   string
}

// Header is the column layout written by every ActivityWriter.
var Header = []string{
	"Timestamp", "Event", "Owner", "Transaction", "Type", "Date",
	"Description", "Amount", "Category", "From", "To",
}

// Values renders r in Header order.
func (r ActivityRow) Values() []any {
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Event,
		r.Owner,
		r.TransactionID,
		r.Type,
		core.FormatDate(r.Date),
		r.Description,
		r.Amount.String(),
		r.CategoryID,
		r.FromAccountID,
		r.ToAccountID,
	}
}

// ActivityWriter appends activity rows.
type ActivityWriter interface {
	AppendActivity(ctx context.Context, row ActivityRow) (rowRef string, err error)
}
