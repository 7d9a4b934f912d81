package core

// ImportRow is one raw row handed to bulk import. Fields are kept as text so
// that parse failures are attributed to the row instead of the whole batch.
type ImportRow struct {
	Line              int
	Type              string
	Amount            string
	Description       string
	TransactionDate   string
	CategoryID        string
	PaymentMethodID   string
	ToPaymentMethodID string
}

// ImportFailure records why one row was not imported.
type ImportFailure struct {
	Row     int
	Kind    Kind
	Message string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int
	Failed   []ImportFailure
	Created  []Transaction
}
