package http

import (
	"encoding/json"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

// flexString accepts a JSON string or number and keeps its text, so amounts
// are parsed exactly rather than through float64.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return core.Validationf("amount must be a number or a decimal string")
	}
	*f = flexString(n.String())
	return nil
}

// nullable distinguishes an absent field from an explicit null.
type nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func money(m core.Money) json.Number {
	return json.Number(m.String())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseMoney(field string, s flexString) (core.Money, error) {
	m, err := core.ParseMoney(string(s))
	if err != nil {
		return core.Money{}, core.Validationf("%s: %s", field, core.PublicMessage(err))
	}
	return m, nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := core.ParseInstant(s)
	if err != nil {
		return time.Time{}, core.Validationf("%s: invalid date %q (use YYYY-MM-DD or RFC 3339)", field, s)
	}
	return t, nil
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Accounts.

type accountRequest struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	InitialBalance flexString `json:"initial_balance"`
	Icon           string     `json:"icon"`
	Color          string     `json:"color"`
}

func (req accountRequest) toNew() (services.NewAccount, error) {
	in := services.NewAccount{
		Name:  req.Name,
		Kind:  core.AccountKind(req.Type),
		Icon:  req.Icon,
		Color: req.Color,
	}
	if req.InitialBalance != "" {
		m, err := parseMoney("initial_balance", req.InitialBalance)
		if err != nil {
			return in, err
		}
		in.InitialBalance = m
	}
	return in, nil
}

type accountJSON struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	InitialBalance json.Number `json:"initial_balance"`
	CurrentBalance json.Number `json:"current_balance"`
	Display        string      `json:"current_balance_display"`
	Icon           string      `json:"icon"`
	Color          string      `json:"color"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      string      `json:"created_at"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:             a.ID,
		UserID:         a.Owner,
		Name:           a.Name,
		Type:           string(a.Kind),
		InitialBalance: money(a.InitialBalance),
		CurrentBalance: money(a.CurrentBalance),
		Display:        a.CurrentBalance.Display(),
		Icon:           a.Icon,
		Color:          a.Color,
		IsActive:       a.IsActive,
		CreatedAt:      core.FormatInstant(a.CreatedAt),
	}
}

// Categories.

type categoryRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

func (req categoryRequest) toNew() services.NewCategory {
	return services.NewCategory{
		Name:     req.Name,
		Type:     core.CategoryType(req.Type),
		ParentID: strings.TrimSpace(req.ParentID),
		Icon:     req.Icon,
		Color:    req.Color,
	}
}

type categoryJSON struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	ParentID  *string `json:"parent_id"`
	Icon      string  `json:"icon"`
	Color     string  `json:"color"`
	CreatedAt string  `json:"created_at"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		UserID:    c.Owner,
		Name:      c.Name,
		Type:      string(c.Type),
		ParentID:  optional(c.ParentID),
		Icon:      c.Icon,
		Color:     c.Color,
		CreatedAt: core.FormatInstant(c.CreatedAt),
	}
}

// Transactions.

type transactionRequest struct {
	Type              string     `json:"type"`
	Amount            flexString `json:"amount"`
	Description       string     `json:"description"`
	TransactionDate   string     `json:"transaction_date"`
	CategoryID        string     `json:"category_id"`
	PaymentMethodID   string     `json:"payment_method_id"`
	ToPaymentMethodID string     `json:"to_payment_method_id"`
}

func (req transactionRequest) toNew() (services.NewTransaction, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return services.NewTransaction{}, err
	}
	date, err := parseDate("transaction_date", req.TransactionDate)
	if err != nil {
		return services.NewTransaction{}, err
	}
	return services.NewTransaction{
		Type:          core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:        amount,
		Description:   req.Description,
		Date:          date,
		CategoryID:    strings.TrimSpace(req.CategoryID),
		FromAccountID: strings.TrimSpace(req.PaymentMethodID),
		ToAccountID:   strings.TrimSpace(req.ToPaymentMethodID),
	}, nil
}

func (req transactionRequest) toImportRow(line int) core.ImportRow {
	return core.ImportRow{
		Line:              line,
		Type:              req.Type,
		Amount:            string(req.Amount),
		Description:       req.Description,
		TransactionDate:   req.TransactionDate,
		CategoryID:        req.CategoryID,
		PaymentMethodID:   req.PaymentMethodID,
		ToPaymentMethodID: req.ToPaymentMethodID,
	}
}

// transactionPatchRequest is a partial update. An absent field is left alone;
// "" or null clears category_id and to_payment_method_id.
type transactionPatchRequest struct {
	Type              *string          `json:"type"`
	Amount            *flexString      `json:"amount"`
	Description       *string          `json:"description"`
	TransactionDate   *string          `json:"transaction_date"`
	CategoryID        nullable[string] `json:"category_id"`
	PaymentMethodID   *string          `json:"payment_method_id"`
	ToPaymentMethodID nullable[string] `json:"to_payment_method_id"`
}

func clearable(n nullable[string]) *string {
	if !n.Set {
		return nil
	}
	v := ""
	if n.Value != nil {
		v = strings.TrimSpace(*n.Value)
	}
	return &v
}

func (req transactionPatchRequest) toPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Type != nil {
		t := core.TransactionType(strings.ToLower(strings.TrimSpace(*req.Type)))
		p.Type = &t
	}
	if req.Amount != nil {
		m, err := parseMoney("amount", *req.Amount)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	p.Description = req.Description
	if req.TransactionDate != nil {
		d, err := parseDate("transaction_date", *req.TransactionDate)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	p.CategoryID = clearable(req.CategoryID)
	if req.PaymentMethodID != nil {
		id := strings.TrimSpace(*req.PaymentMethodID)
		p.FromAccountID = &id
	}
	p.ToAccountID = clearable(req.ToPaymentMethodID)
	return p, nil
}

type transactionJSON struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"user_id"`
	Type                string      `json:"type"`
	Amount              json.Number `json:"amount"`
	Description         string      `json:"description"`
	TransactionDate     string      `json:"transaction_date"`
	CategoryID          *string     `json:"category_id"`
	CategoryName        *string     `json:"category_name"`
	CategoryIcon        *string     `json:"category_icon"`
	PaymentMethodID     string      `json:"payment_method_id"`
	PaymentMethodName   *string     `json:"payment_method_name"`
	PaymentMethodIcon   *string     `json:"payment_method_icon"`
	ToPaymentMethodID   *string     `json:"to_payment_method_id"`
	ToPaymentMethodName *string     `json:"to_payment_method_name"`
	ToPaymentMethodIcon *string     `json:"to_payment_method_icon"`
	IsDeleted           bool        `json:"is_deleted"`
	CreatedAt           string      `json:"created_at"`
	UpdatedAt           string      `json:"updated_at"`
}

// labels resolves the display name and icon of the accounts and categories a
// transaction points at. A zero labels leaves those fields null.
type labels struct {
	accounts   map[string]core.Account
	categories map[string]core.Category
}

func newLabels(accounts []core.Account, categories []core.Category) labels {
	l := labels{
		accounts:   make(map[string]core.Account, len(accounts)),
		categories: make(map[string]core.Category, len(categories)),
	}
	for _, a := range accounts {
		l.accounts[a.ID] = a
	}
	for _, c := range categories {
		l.categories[c.ID] = c
	}
	return l
}

func (l labels) transaction(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:                t.ID,
		UserID:            t.Owner,
		Type:              string(t.Type),
		Amount:            money(t.Amount),
		Description:       t.Description,
		TransactionDate:   core.FormatInstant(t.Date),
		CategoryID:        optional(t.CategoryID),
		PaymentMethodID:   t.FromAccountID,
		ToPaymentMethodID: optional(t.ToAccountID),
		IsDeleted:         t.Status == core.StatusDeleted,
		CreatedAt:         core.FormatInstant(t.CreatedAt),
		UpdatedAt:         core.FormatInstant(t.UpdatedAt),
	}
	if c, ok := l.categories[t.CategoryID]; ok && t.CategoryID != "" {
		out.CategoryName, out.CategoryIcon = optional(c.Name), optional(c.Icon)
	}
	if a, ok := l.accounts[t.FromAccountID]; ok {
		out.PaymentMethodName, out.PaymentMethodIcon = optional(a.Name), optional(a.Icon)
	}
	if a, ok := l.accounts[t.ToAccountID]; ok && t.ToAccountID != "" {
		out.ToPaymentMethodName, out.ToPaymentMethodIcon = optional(a.Name), optional(a.Icon)
	}
	return out
}

func (l labels) transactions(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, t := range txs {
		out[i] = l.transaction(t)
	}
	return out
}

type pageJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	Total        int64             `json:"total"`
	Limit        int               `json:"limit"`
	Offset       int               `json:"offset"`
	Pages        int64             `json:"pages"`
}

type importResultJSON struct {
	Imported     int                 `json:"imported"`
	Failed       int                 `json:"failed"`
	Errors       []importFailureJSON `json:"errors"`
	Transactions []transactionJSON   `json:"transactions"`
}

type importFailureJSON struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func toImportResultJSON(res core.ImportResult, l labels) importResultJSON {
	out := importResultJSON{
		Imported:     res.Imported,
		Failed:       len(res.Failed),
		Errors:       make([]importFailureJSON, len(res.Failed)),
		Transactions: l.transactions(res.Created),
	}
	for i, f := range res.Failed {
		out.Errors[i] = importFailureJSON{Row: f.Row, Kind: string(f.Kind), Message: f.Message}
	}
	return out
}

// Budgets.

type budgetRequest struct {
	Name       string     `json:"name"`
	Amount     flexString `json:"amount"`
	PeriodType string     `json:"period_type"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	CategoryID string     `json:"category_id"`
}

func (req budgetRequest) toNew() (services.NewBudget, error) {
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		return services.NewBudget{}, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return services.NewBudget{}, err
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return services.NewBudget{}, err
	}
	return services.NewBudget{
		Name:       req.Name,
		Amount:     amount,
		PeriodType: core.PeriodType(req.PeriodType),
		StartDate:  start,
		EndDate:    end,
		CategoryID: strings.TrimSpace(req.CategoryID),
	}, nil
}

type budgetPatchRequest struct {
	Name       *string          `json:"name"`
	Amount     *flexString      `json:"amount"`
	PeriodType *string          `json:"period_type"`
	StartDate  *string          `json:"start_date"`
	EndDate    nullable[string] `json:"end_date"`
	CategoryID nullable[string] `json:"category_id"`
}

func (req budgetPatchRequest) toPatch() (core.BudgetPatch, error) {
	var p core.BudgetPatch
	p.Name = req.Name
	if req.Amount != nil {
		m, err := parseMoney("amount", *req.Amount)
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if req.PeriodType != nil {
		pt := core.PeriodType(*req.PeriodType)
		p.PeriodType = &pt
	}
	if req.StartDate != nil {
		d, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return p, err
		}
		p.StartDate = &d
	}
	if req.EndDate.Set {
		var end *time.Time
		if req.EndDate.Value != nil {
			d, err := parseOptionalDate("end_date", *req.EndDate.Value)
			if err != nil {
				return p, err
			}
			end = d
		}
		p.EndDate = &end
	}
	p.CategoryID = clearable(req.CategoryID)
	return p, nil
}

type budgetJSON struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Amount     json.Number `json:"amount"`
	PeriodType string      `json:"period_type"`
	StartDate  string      `json:"start_date"`
	EndDate    *string     `json:"end_date"`
	CategoryID *string     `json:"category_id"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
	Spent      json.Number `json:"spent"`
	Remaining  json.Number `json:"remaining"`
	Percentage float64     `json:"percentage"`
}

func toBudgetJSON(v core.BudgetView) budgetJSON {
	out := budgetJSON{
		ID:         v.ID,
		UserID:     v.Owner,
		Name:       v.Name,
		Amount:     money(v.Amount),
		PeriodType: string(v.PeriodType),
		StartDate:  core.FormatInstant(v.StartDate),
		CategoryID: optional(v.CategoryID),
		IsActive:   v.IsActive,
		CreatedAt:  core.FormatInstant(v.CreatedAt),
		UpdatedAt:  core.FormatInstant(v.UpdatedAt),
		Spent:      money(v.Status.Spent),
		Remaining:  money(v.Status.Remaining),
		Percentage: v.Status.Percentage,
	}
	if v.EndDate != nil {
		end := core.FormatInstant(*v.EndDate)
		out.EndDate = &end
	}
	return out
}

// Reports.

type categoryAmountJSON struct {
	CategoryID string               `json:"category_id"`
	Name       string               `json:"name"`
	Amount     json.Number          `json:"amount"`
	Children   []categoryAmountJSON `json:"children,omitempty"`
}

type summaryJSON struct {
	From       *string              `json:"from"`
	To         *string              `json:"to"`
	Income     json.Number          `json:"income"`
	Expense    json.Number          `json:"expense"`
	Net        json.Number          `json:"net"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

func toCategoryAmounts(in []core.CategoryAmount) []categoryAmountJSON {
	if len(in) == 0 {
		return nil
	}
	out := make([]categoryAmountJSON, len(in))
	for i, c := range in {
		out[i] = categoryAmountJSON{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Amount:     money(c.Amount),
			Children:   toCategoryAmounts(c.Children),
		}
	}
	return out
}

func toSummaryJSON(s core.Summary) summaryJSON {
	out := summaryJSON{
		Income:     money(s.Income),
		Expense:    money(s.Expense),
		Net:        money(s.Net),
		ByCategory: toCategoryAmounts(s.ByCategory),
	}
	if out.ByCategory == nil {
		out.ByCategory = []categoryAmountJSON{}
	}
	if s.From != nil {
		v := core.FormatInstant(*s.From)
		out.From = &v
	}
	if s.To != nil {
		v := core.FormatInstant(*s.To)
		out.To = &v
	}
	return out
}
