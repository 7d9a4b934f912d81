package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		Owner:         "u1",
		Type:          TypeExpense,
		Amount:        Money{Cents: 100},
		Date:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CategoryID:    "c1",
		FromAccountID: "a1",
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"valid expense", func(*Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "refund" }, ErrInvalidType},
		{"missing source", func(tx *Transaction) { tx.FromAccountID = "" }, ErrMissingAccount},
		{"expense without category", func(tx *Transaction) { tx.CategoryID = "" }, ErrMissingCategory},
		{"expense with destination", func(tx *Transaction) { tx.ToAccountID = "a2" }, ErrDestinationNotXfer},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"transfer ok", func(tx *Transaction) {
			tx.Type, tx.CategoryID, tx.ToAccountID = TypeTransfer, "", "a2"
		}, nil},
		{"transfer with category", func(tx *Transaction) {
			tx.Type, tx.ToAccountID = TypeTransfer, "a2"
		}, ErrCategoryOnTransfer},
		{"transfer without destination", func(tx *Transaction) {
			tx.Type, tx.CategoryID = TypeTransfer, ""
		}, ErrMissingDestination},
		{"transfer to itself", func(tx *Transaction) {
			tx.Type, tx.CategoryID, tx.ToAccountID = TypeTransfer, "", "a1"
		}, ErrSameAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation kind, got %s", KindOf(err))
			}
		})
	}
}

// knownRefs resolves the ids of validTransaction and records each lookup.
type knownRefs struct{ calls []string }

func (r *knownRefs) CheckAccount(id string) error {
	r.calls = append(r.calls, "account:"+id)
	if id == "a1" || id == "a2" {
		return nil
	}
	return NotFound("payment method", id)
}

func (r *knownRefs) CategoryType(id string) (CategoryType, error) {
	r.calls = append(r.calls, "category:"+id)
	if id == "c1" {
		return CategoryExpense, nil
	}
	return "", NotFound("category", id)
}

func TestTransactionValidateWithOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Transaction)
		wantKind  Kind
		wantCalls int
	}{
		{"amount before account", func(tx *Transaction) { tx.Amount, tx.FromAccountID = Money{}, "gone" }, KindValidation, 0},
		{"account before category", func(tx *Transaction) { tx.FromAccountID, tx.CategoryID = "gone", "" }, KindNotFound, 1},
		{"account before category type", func(tx *Transaction) { tx.FromAccountID, tx.Type = "gone", TypeIncome }, KindNotFound, 1},
		{"category before date", func(tx *Transaction) { tx.CategoryID, tx.Date = "gone", time.Time{} }, KindNotFound, 2},
		{"category type mismatch", func(tx *Transaction) { tx.Type = TypeIncome }, KindValidation, 2},
		{"destination before date", func(tx *Transaction) {
			tx.Type, tx.CategoryID, tx.ToAccountID, tx.Date = TypeTransfer, "", "gone", time.Time{}
		}, KindNotFound, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			refs := &knownRefs{}
			err := tx.ValidateWith(refs)
			if KindOf(err) != tt.wantKind {
				t.Fatalf("ValidateWith() = %v, want %s", err, tt.wantKind)
			}
			if len(refs.calls) != tt.wantCalls {
				t.Errorf("lookups = %v, want %d", refs.calls, tt.wantCalls)
			}
		})
	}

	if err := validTransaction().ValidateWith(&knownRefs{}); err != nil {
		t.Fatalf("ValidateWith() on a valid expense = %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	good := Budget{Owner: "u1", Name: "Food", Amount: Money{Cents: 20000}, PeriodType: PeriodMonthly, StartDate: start}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]Budget{
		"zero amount":      {Owner: "u1", Name: "x", Amount: Money{}, PeriodType: PeriodMonthly, StartDate: start},
		"no name":          {Owner: "u1", Name: " ", Amount: Money{Cents: 1}, PeriodType: PeriodMonthly, StartDate: start},
		"bad period":       {Owner: "u1", Name: "x", Amount: Money{Cents: 1}, PeriodType: "daily", StartDate: start},
		"one_time no end":  {Owner: "u1", Name: "x", Amount: Money{Cents: 1}, PeriodType: PeriodOneTime, StartDate: start},
		"end before start": {Owner: "u1", Name: "x", Amount: Money{Cents: 1}, PeriodType: PeriodYearly, StartDate: start, EndDate: &before},
		"missing start":    {Owner: "u1", Name: "x", Amount: Money{Cents: 1}, PeriodType: PeriodWeekly},
	}
	for name, b := range bads {
		if err := b.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestAccountAndCategoryValidate(t *testing.T) {
	if err := (Account{Owner: "u1", Name: "Cash", Kind: AccountCash}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Owner: "u1", Name: "Cash", Kind: "piggy"}).Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if err := (Account{Owner: "u1", Kind: AccountCash}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Category{Owner: "u1", Name: "Food", Type: "savings"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	nf := NotFound("transaction", "t1")
	if !errors.Is(nf, ErrNotFound) || errors.Is(nf, ErrValidation) {
		t.Fatalf("NotFound kind mismatch: %v", nf)
	}
	if PublicMessage(nf) != "transaction t1 not found" {
		t.Fatalf("unexpected message %q", PublicMessage(nf))
	}
	internal := Internal("ledger.create", errors.New("disk on fire"))
	if PublicMessage(internal) != "internal error" {
		t.Fatalf("internal cause leaked: %q", PublicMessage(internal))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("foreign errors must be internal")
	}
	if !errors.Is(ErrInvalidAmount, ErrValidation) {
		t.Fatalf("validation sentinels must match ErrValidation")
	}
}
