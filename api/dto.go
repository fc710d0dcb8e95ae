/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small operation results

MONEY:
  Amounts travel as JSON numbers and are converted to decimal.Decimal at
  this boundary; the domain never sees float64.

VALIDATION:
  Request types carry go-playground/validator tags checked by decodeAndValidate
  in handlers.go. Cross-field rules (open <= close, required fields after a
  partial update) live in deposit.Account.Validate.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/deposit-tracker/deposit"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses, with its reconciliation.
type AccountDTO struct {
	ID                    string  `json:"id"`
	FirstName             string  `json:"first_name"`
	SecondName            string  `json:"second_name,omitempty"`
	AccountNumber1        string  `json:"account_number1"`
	AccountNumber2        string  `json:"account_number2,omitempty"`
	CIFNumber1            string  `json:"cif_number1"`
	CIFNumber2            string  `json:"cif_number2,omitempty"`
	MobileNumber          string  `json:"mobile_number"`
	NomineeName           string  `json:"nominee_name"`
	MonthlyAmount         float64 `json:"monthly_amount"`
	TotalInvestmentAmount float64 `json:"total_investment_amount"`
	MaturityAmount        float64 `json:"maturity_amount"`
	AccountOpenDate       string  `json:"account_open_date"`
	AccountCloseDate      string  `json:"account_close_date"`
	AccountType           string  `json:"account_type,omitempty"`
	CreatedAt             string  `json:"created_at,omitempty"`
	UpdatedAt             string  `json:"updated_at,omitempty"`

	// Derived on every read, never stored.
	PaidAmount           float64 `json:"paid_amount"`
	LeftInvestmentAmount float64 `json:"left_investment_amount"`
	PaidInstallments     int     `json:"paid_installments"`
	TotalInstallments    int     `json:"total_installments"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	FirstName             string  `json:"first_name" validate:"required,max=100"`
	SecondName            string  `json:"second_name" validate:"max=100"`
	AccountNumber1        string  `json:"account_number1" validate:"required,max=34"`
	AccountNumber2        string  `json:"account_number2" validate:"max=34"`
	CIFNumber1            string  `json:"cif_number1" validate:"required,max=34"`
	CIFNumber2            string  `json:"cif_number2" validate:"max=34"`
	MobileNumber          string  `json:"mobile_number" validate:"required,max=20"`
	NomineeName           string  `json:"nominee_name" validate:"required,max=100"`
	MonthlyAmount         float64 `json:"monthly_amount" validate:"gte=0"`
	TotalInvestmentAmount float64 `json:"total_investment_amount" validate:"gte=0"`
	MaturityAmount        float64 `json:"maturity_amount" validate:"gte=0"`
	AccountOpenDate       string  `json:"account_open_date" validate:"required"`
	AccountCloseDate      string  `json:"account_close_date" validate:"required"`
	AccountType           string  `json:"account_type" validate:"max=50"`
}

// UpdateAccountRequest is a partial update; only present fields change.
type UpdateAccountRequest struct {
	FirstName             *string  `json:"first_name" validate:"omitempty,max=100"`
	SecondName            *string  `json:"second_name" validate:"omitempty,max=100"`
	AccountNumber1        *string  `json:"account_number1" validate:"omitempty,max=34"`
	AccountNumber2        *string  `json:"account_number2" validate:"omitempty,max=34"`
	CIFNumber1            *string  `json:"cif_number1" validate:"omitempty,max=34"`
	CIFNumber2            *string  `json:"cif_number2" validate:"omitempty,max=34"`
	MobileNumber          *string  `json:"mobile_number" validate:"omitempty,max=20"`
	NomineeName           *string  `json:"nominee_name" validate:"omitempty,max=100"`
	MonthlyAmount         *float64 `json:"monthly_amount" validate:"omitempty,gte=0"`
	TotalInvestmentAmount *float64 `json:"total_investment_amount" validate:"omitempty,gte=0"`
	MaturityAmount        *float64 `json:"maturity_amount" validate:"omitempty,gte=0"`
	AccountOpenDate       *string  `json:"account_open_date"`
	AccountCloseDate      *string  `json:"account_close_date"`
	AccountType           *string  `json:"account_type" validate:"omitempty,max=50"`
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO represents one monthly installment.
type PeriodDTO struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"account_id"`
	Month       string  `json:"month"` // short label, e.g. "Jan"
	MonthNumber int     `json:"month_number"`
	Year        int     `json:"year"`
	Amount      float64 `json:"amount"`
	Paid        bool    `json:"paid"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// UpdatePeriodRequest changes a period's amount and/or paid flag.
type UpdatePeriodRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
	Paid   *bool    `json:"paid"`
}

// GenerateResponse is the result of a schedule generation run.
type GenerateResponse struct {
	Message   string `json:"message"`
	Count     int    `json:"count"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Total     int    `json:"total"`
}

// BulkStatusResponse is the result of pay-all / unpay-all.
type BulkStatusResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAccountDTO(st deposit.Statement) AccountDTO {
	a, rec := st.Account, st.Reconciliation
	return AccountDTO{
		ID:                    a.ID,
		FirstName:             a.FirstName,
		SecondName:            a.SecondName,
		AccountNumber1:        a.AccountNumber1,
		AccountNumber2:        a.AccountNumber2,
		CIFNumber1:            a.CIFNumber1,
		CIFNumber2:            a.CIFNumber2,
		MobileNumber:          a.MobileNumber,
		NomineeName:           a.NomineeName,
		MonthlyAmount:         a.MonthlyAmount.InexactFloat64(),
		TotalInvestmentAmount: a.TotalInvestmentAmount.InexactFloat64(),
		MaturityAmount:        a.MaturityAmount.InexactFloat64(),
		AccountOpenDate:       a.OpenDate.Format(deposit.DateLayout),
		AccountCloseDate:      a.CloseDate.Format(deposit.DateLayout),
		AccountType:           a.AccountType,
		CreatedAt:             formatTime(a.CreatedAt),
		UpdatedAt:             formatTime(a.UpdatedAt),
		PaidAmount:            rec.Paid.InexactFloat64(),
		LeftInvestmentAmount:  rec.Remaining.InexactFloat64(),
		PaidInstallments:      rec.PaidCount,
		TotalInstallments:     rec.PeriodCount,
	}
}

func toPeriodDTO(p deposit.Period) PeriodDTO {
	return PeriodDTO{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Month:       p.Month.Label(),
		MonthNumber: int(p.Month.Month),
		Year:        p.Month.Year,
		Amount:      p.Amount.InexactFloat64(),
		Paid:        p.Paid,
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toPeriodDTOs(periods []deposit.Period) []PeriodDTO {
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	return dtos
}

// toAccount converts a create request. Dates are parsed here; a bad date is
// a field error.
func (req CreateAccountRequest) toAccount() (deposit.Account, error) {
	var fields []deposit.FieldError
	open, err := deposit.ParseDate(req.AccountOpenDate)
	if err != nil {
		fields = append(fields, deposit.FieldError{Field: "account_open_date", Message: err.Error()})
	}
	closeDate, err := deposit.ParseDate(req.AccountCloseDate)
	if err != nil {
		fields = append(fields, deposit.FieldError{Field: "account_close_date", Message: err.Error()})
	}
	if len(fields) > 0 {
		return deposit.Account{}, &deposit.ValidationError{Fields: fields}
	}

	return deposit.Account{
		FirstName:             req.FirstName,
		SecondName:            req.SecondName,
		AccountNumber1:        req.AccountNumber1,
		AccountNumber2:        req.AccountNumber2,
		CIFNumber1:            req.CIFNumber1,
		CIFNumber2:            req.CIFNumber2,
		MobileNumber:          req.MobileNumber,
		NomineeName:           req.NomineeName,
		MonthlyAmount:         decimal.NewFromFloat(req.MonthlyAmount),
		TotalInvestmentAmount: decimal.NewFromFloat(req.TotalInvestmentAmount),
		MaturityAmount:        decimal.NewFromFloat(req.MaturityAmount),
		OpenDate:              open,
		CloseDate:             closeDate,
		AccountType:           req.AccountType,
	}, nil
}

func (req UpdateAccountRequest) toPatch() (deposit.AccountPatch, error) {
	patch := deposit.AccountPatch{
		FirstName:             req.FirstName,
		SecondName:            req.SecondName,
		AccountNumber1:        req.AccountNumber1,
		AccountNumber2:        req.AccountNumber2,
		CIFNumber1:            req.CIFNumber1,
		CIFNumber2:            req.CIFNumber2,
		MobileNumber:          req.MobileNumber,
		NomineeName:           req.NomineeName,
		MonthlyAmount:         decimalPtr(req.MonthlyAmount),
		TotalInvestmentAmount: decimalPtr(req.TotalInvestmentAmount),
		MaturityAmount:        decimalPtr(req.MaturityAmount),
		AccountType:           req.AccountType,
	}

	var fields []deposit.FieldError
	if req.AccountOpenDate != nil {
		t, err := deposit.ParseDate(*req.AccountOpenDate)
		if err != nil {
			fields = append(fields, deposit.FieldError{Field: "account_open_date", Message: err.Error()})
		}
		patch.OpenDate = &t
	}
	if req.AccountCloseDate != nil {
		t, err := deposit.ParseDate(*req.AccountCloseDate)
		if err != nil {
			fields = append(fields, deposit.FieldError{Field: "account_close_date", Message: err.Error()})
		}
		patch.CloseDate = &t
	}
	if len(fields) > 0 {
		return deposit.AccountPatch{}, &deposit.ValidationError{Fields: fields}
	}
	return patch, nil
}

func (req UpdatePeriodRequest) toPatch() deposit.PeriodPatch {
	return deposit.PeriodPatch{
		Amount: decimalPtr(req.Amount),
		Paid:   req.Paid,
	}
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
