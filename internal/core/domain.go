package core

import (
	"strings"
	"time"
)

type AccountKind string

const (
	AccountCash          AccountKind = "cash"
	AccountBank          AccountKind = "bank_account"
	AccountCreditCard    AccountKind = "credit_card"
	AccountDebitCard     AccountKind = "debit_card"
	AccountDigitalWallet AccountKind = "digital_wallet"
	AccountOther         AccountKind = "other"
)

func (k AccountKind) IsValid() bool {
	switch k {
	case AccountCash, AccountBank, AccountCreditCard, AccountDebitCard, AccountDigitalWallet, AccountOther:
		return true
	}
	return false
}

type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

func (t CategoryType) IsValid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// CategoryType returns the category type a transaction of this type must
// reference. Transfers have none.
func (t TransactionType) CategoryType() (CategoryType, bool) {
	switch t {
	case TypeIncome:
		return CategoryIncome, true
	case TypeExpense:
		return CategoryExpense, true
	}
	return "", false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusActive  TransactionStatus = "active"
	StatusDeleted TransactionStatus = "deleted"
)

type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
	PeriodOneTime PeriodType = "one_time"
)

func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodOneTime:
		return true
	}
	return false
}

type (
	// Account is a payment method with a running balance.
	Account struct {
		ID             string
		Owner          string
		Name           string
		Kind           AccountKind
		Icon           string
		Color          string
		InitialBalance Money
		CurrentBalance Money
		IsActive       bool
		CreatedAt      time.Time
	}

	// Category is an income or expense category, at most one level deep.
	Category struct {
		ID        string
		Owner     string
		Name      string
		Type      CategoryType
		ParentID  string // empty for top-level categories
		Icon      string
		Color     string
		CreatedAt time.Time
	}

	// Transaction is one money movement. FromAccountID is the persisted
	// payment_method_id, ToAccountID the to_payment_method_id.
	Transaction struct {
		ID            string
		Owner         string
		Type          TransactionType
		Amount        Money
		Description   string
		Date          time.Time
		CategoryID    string
		FromAccountID string
		ToAccountID   string
		Status        TransactionStatus
		Seq           int64
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// Budget is a spending ceiling over a fixed window.
	Budget struct {
		ID         string
		Owner      string
		Name       string
		Amount     Money
		PeriodType PeriodType
		StartDate  time.Time
		EndDate    *time.Time
		CategoryID string // empty applies to every expense category
		IsActive   bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 500

	DefaultAccountIcon   = "💰"
	DefaultAccountColor  = "#3B82F6"
	DefaultCategoryIcon  = "📁"
	DefaultCategoryColor = "#6B7280"
)

var (
	ErrInvalidAmount      = &Error{Kind: KindValidation, Message: "amount must be greater than zero"}
	ErrNonFiniteAmount    = &Error{Kind: KindValidation, Message: "amount must be a finite number"}
	ErrInvalidDate        = &Error{Kind: KindValidation, Message: "invalid date"}
	ErrEmptyName          = &Error{Kind: KindValidation, Message: "name is required"}
	ErrNameTooLong        = &Error{Kind: KindValidation, Message: "name too long (max 255 characters)"}
	ErrDescriptionTooLong = &Error{Kind: KindValidation, Message: "description too long (max 500 characters)"}
	ErrInvalidKind        = &Error{Kind: KindValidation, Message: "invalid account type"}
	ErrInvalidType        = &Error{Kind: KindValidation, Message: "invalid type"}
	ErrMissingOwner       = &Error{Kind: KindValidation, Message: "owner is required"}
	ErrMissingAccount     = &Error{Kind: KindValidation, Message: "payment method is required"}
	ErrMissingCategory    = &Error{Kind: KindValidation, Message: "category is required for income and expense"}
	ErrCategoryOnTransfer = &Error{Kind: KindValidation, Message: "transfers cannot have a category"}
	ErrMissingDestination = &Error{Kind: KindValidation, Message: "transfer requires a destination payment method"}
	ErrDestinationNotXfer = &Error{Kind: KindValidation, Message: "only transfers can have a destination payment method"}
	ErrSameAccount        = &Error{Kind: KindValidation, Message: "transfer source and destination must differ"}
	ErrCategoryMismatch   = &Error{Kind: KindValidation, Message: "category type does not match transaction type"}
	ErrNestedCategory     = &Error{Kind: KindValidation, Message: "parent category cannot itself have a parent"}
	ErrParentTypeMismatch = &Error{Kind: KindValidation, Message: "parent category type differs"}
	ErrInvalidPeriod      = &Error{Kind: KindValidation, Message: "invalid period type"}
	ErrMissingEndDate     = &Error{Kind: KindValidation, Message: "one_time budgets require an end date"}
	ErrEndBeforeStart     = &Error{Kind: KindValidation, Message: "end date must not be before start date"}
	ErrBudgetCategoryType = &Error{Kind: KindValidation, Message: "budgets can only track expense categories"}
	ErrEmptyPatch         = &Error{Kind: KindValidation, Message: "no fields to update"}
)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Validate checks the intrinsic fields of an account.
func (a Account) Validate() error {
	if a.Owner == "" {
		return ErrMissingOwner
	}
	if err := validateName(a.Name); err != nil {
		return err
	}
	if !a.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}

// Validate checks the intrinsic fields of a category. Parent rules need the
// parent row and are checked by the category service.
func (c Category) Validate() error {
	if c.Owner == "" {
		return ErrMissingOwner
	}
	if err := validateName(c.Name); err != nil {
		return err
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// References resolves the rows a transaction points at. Both lookups return a
// not_found error for rows that are missing, inactive or owned by someone
// else.
type References interface {
	CheckAccount(id string) error
	CategoryType(id string) (CategoryType, error)
}

// Validate checks the shape of a transaction without touching referenced rows.
func (t Transaction) Validate() error {
	return t.ValidateWith(nil)
}

// ValidateWith runs the full check in the order amount, source account,
// category, destination account, date. With refs set, each reference is
// resolved at its step, so the first failing step decides the error kind.
func (t Transaction) ValidateWith(refs References) error {
	if t.Owner == "" {
		return ErrMissingOwner
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.FromAccountID == "" {
		return ErrMissingAccount
	}
	if refs != nil {
		if err := refs.CheckAccount(t.FromAccountID); err != nil {
			return err
		}
	}
	if want, ok := t.Type.CategoryType(); ok {
		if t.CategoryID == "" {
			return ErrMissingCategory
		}
		if t.ToAccountID != "" {
			return ErrDestinationNotXfer
		}
		if refs != nil {
			got, err := refs.CategoryType(t.CategoryID)
			if err != nil {
				return err
			}
			if got != want {
				return ErrCategoryMismatch
			}
		}
	} else {
		if t.CategoryID != "" {
			return ErrCategoryOnTransfer
		}
		if t.ToAccountID == "" {
			return ErrMissingDestination
		}
		if refs != nil {
			if err := refs.CheckAccount(t.ToAccountID); err != nil {
				return err
			}
		}
		if t.ToAccountID == t.FromAccountID {
			return ErrSameAccount
		}
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) IsActive() bool { return t.Status == StatusActive }

// Validate checks the intrinsic fields of a budget.
func (b Budget) Validate() error {
	if b.Owner == "" {
		return ErrMissingOwner
	}
	if err := validateName(b.Name); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.PeriodType.IsValid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if b.PeriodType == PeriodOneTime && b.EndDate == nil {
		return ErrMissingEndDate
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}
