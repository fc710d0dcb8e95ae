/*
Package deposit provides the recurring-deposit domain: accounts, their
monthly periods, schedule generation and reconciliation.

PURPOSE:
  An Account is one investor's recurring-deposit plan. Each calendar month
  between the account's open and close dates is a Period carrying the amount
  actually deposited and whether it has been paid. Remaining balance is never
  stored; it is derived from the periods on every read.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: the plan and its holder details
  - Period: one calendar month's contribution and status
  - MonthKey: normalized (year, month) pair identifying a period

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Normalized months: periods are keyed by numeric (year, month); the
     short label ("Jan") is a presentation concern
  3. Ownership: periods have no lifecycle outside their account

SEE ALSO:
  - month.go: MonthKey arithmetic
  - schedule.go: Schedule Generator
  - reconcile.go: Reconciliation Calculator
  - service.go: use-cases over a Store
*/
package deposit

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is a recurring-deposit plan.
type Account struct {
	ID string

	FirstName  string
	SecondName string

	AccountNumber1 string
	AccountNumber2 string
	CIFNumber1     string
	CIFNumber2     string

	MobileNumber string
	NomineeName  string

	MonthlyAmount         decimal.Decimal
	TotalInvestmentAmount decimal.Decimal
	MaturityAmount        decimal.Decimal

	OpenDate  time.Time
	CloseDate time.Time

	// AccountType is a free-text classifier used for list filtering.
	AccountType string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HolderName returns the holder name(s) joined for display.
func (a Account) HolderName() string {
	if a.SecondName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.SecondName
}

// Validate checks the invariants that must hold before an account is persisted.
func (a Account) Validate() error {
	var fields []FieldError
	required := []struct {
		field string
		value string
	}{
		{"first_name", a.FirstName},
		{"account_number1", a.AccountNumber1},
		{"cif_number1", a.CIFNumber1},
		{"mobile_number", a.MobileNumber},
		{"nominee_name", a.NomineeName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fields = append(fields, FieldError{Field: r.field, Message: "is required"})
		}
	}
	if a.OpenDate.IsZero() {
		fields = append(fields, FieldError{Field: "account_open_date", Message: "is required"})
	}
	if a.CloseDate.IsZero() {
		fields = append(fields, FieldError{Field: "account_close_date", Message: "is required"})
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"monthly_amount", a.MonthlyAmount},
		{"total_investment_amount", a.TotalInvestmentAmount},
		{"maturity_amount", a.MaturityAmount},
	}
	for _, amt := range amounts {
		if amt.value.IsNegative() {
			fields = append(fields, FieldError{Field: amt.field, Message: "must not be negative"})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	if DateOf(a.OpenDate).After(DateOf(a.CloseDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// AccountFilter narrows account listings. Zero value lists everything.
type AccountFilter struct {
	AccountType string
}

// AccountPatch carries the allow-listed fields of a partial update.
// Nil fields are left untouched.
type AccountPatch struct {
	FirstName             *string
	SecondName            *string
	AccountNumber1        *string
	AccountNumber2        *string
	CIFNumber1            *string
	CIFNumber2            *string
	MobileNumber          *string
	NomineeName           *string
	MonthlyAmount         *decimal.Decimal
	TotalInvestmentAmount *decimal.Decimal
	MaturityAmount        *decimal.Decimal
	OpenDate              *time.Time
	CloseDate             *time.Time
	AccountType           *string
}

// Apply returns a copy of a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&a.FirstName, p.FirstName)
	setStr(&a.SecondName, p.SecondName)
	setStr(&a.AccountNumber1, p.AccountNumber1)
	setStr(&a.AccountNumber2, p.AccountNumber2)
	setStr(&a.CIFNumber1, p.CIFNumber1)
	setStr(&a.CIFNumber2, p.CIFNumber2)
	setStr(&a.MobileNumber, p.MobileNumber)
	setStr(&a.NomineeName, p.NomineeName)
	setStr(&a.AccountType, p.AccountType)
	if p.MonthlyAmount != nil {
		a.MonthlyAmount = *p.MonthlyAmount
	}
	if p.TotalInvestmentAmount != nil {
		a.TotalInvestmentAmount = *p.TotalInvestmentAmount
	}
	if p.MaturityAmount != nil {
		a.MaturityAmount = *p.MaturityAmount
	}
	if p.OpenDate != nil {
		a.OpenDate = DateOf(*p.OpenDate)
	}
	if p.CloseDate != nil {
		a.CloseDate = DateOf(*p.CloseDate)
	}
	return a
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p == AccountPatch{}
}

// =============================================================================
// PERIOD
// =============================================================================

// Period is one calendar month of an account's schedule.
type Period struct {
	ID        string
	AccountID string
	Month     MonthKey
	Amount    decimal.Decimal
	Paid      bool
	UpdatedAt time.Time
}

// PeriodFilter narrows period listings. Zero value lists everything.
type PeriodFilter struct {
	AccountID string
	Month     *MonthKey
}

// PeriodPatch updates a single period. Nil fields are left untouched.
type PeriodPatch struct {
	Amount *decimal.Decimal
	Paid   *bool
}

// Validate rejects empty patches and negative amounts.
func (p PeriodPatch) Validate() error {
	if p.Amount == nil && p.Paid == nil {
		return &ValidationError{Fields: []FieldError{{Field: "body", Message: "amount or paid is required"}}}
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return &ValidationError{Fields: []FieldError{{Field: "amount", Message: "must not be negative"}}}
	}
	return nil
}
