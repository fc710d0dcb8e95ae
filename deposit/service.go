/*
service.go - Account and period use-cases

PURPOSE:
  Service is the one place where identifiers are checked, accounts are
  validated and the generator and reconciliation run. Handlers and demo
  scenarios call it; it calls the Store.

FLOW:
  create account -> GeneratePeriods (Schedule Generator + InsertPeriods)
  -> UpdatePeriod / PayThrough / UnpayAll -> Statement (Reconcile on read)

SEE ALSO:
  - store.go: persistence contract
  - schedule.go, reconcile.go: pure computations
*/
package deposit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service implements the account and period operations over a Store.
type Service struct {
	Store Store

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewService creates a service backed by store.
func NewService(store Store) *Service {
	return &Service{
		Store: store,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Statement is an account with its periods and derived reconciliation.
type Statement struct {
	Account        Account
	Periods        []Period
	Reconciliation Reconciliation
}

// GenerateResult reports what a generation run did.
type GenerateResult struct {
	Generated int // newly inserted periods
	Skipped   int // months already present
	Total     int // months in the account's range
}

// MonthlyEntry joins a period with its account for monthly exports.
type MonthlyEntry struct {
	Account Account
	Period  Period
}

// ValidateID checks that id is a well-formed identifier.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount assigns an identifier, validates and persists a.
func (s *Service) CreateAccount(ctx context.Context, a Account) (Account, error) {
	now := s.Now()
	a.ID = uuid.NewString()
	a.OpenDate = DateOf(a.OpenDate)
	a.CloseDate = DateOf(a.CloseDate)
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	if err := s.Store.CreateAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetAccount returns one account.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	if err := ValidateID(id); err != nil {
		return Account{}, err
	}
	return s.Store.GetAccount(ctx, id)
}

// Statement returns the account, its periods and a fresh reconciliation.
func (s *Service) Statement(ctx context.Context, id string) (Statement, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return Statement{}, err
	}
	periods, err := s.Store.ListPeriods(ctx, PeriodFilter{AccountID: id})
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Account:        account,
		Periods:        periods,
		Reconciliation: Reconcile(account.TotalInvestmentAmount, periods),
	}, nil
}

// ListStatements lists accounts matching filter, each reconciled against its
// periods.
func (s *Service) ListStatements(ctx context.Context, filter AccountFilter) ([]Statement, error) {
	accounts, err := s.Store.ListAccounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []Statement{}, nil
	}

	periods, err := s.Store.ListPeriods(ctx, PeriodFilter{})
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string][]Period, len(accounts))
	for _, p := range periods {
		byAccount[p.AccountID] = append(byAccount[p.AccountID], p)
	}

	statements := make([]Statement, len(accounts))
	for i, a := range accounts {
		ps := byAccount[a.ID]
		statements[i] = Statement{
			Account:        a,
			Periods:        ps,
			Reconciliation: Reconcile(a.TotalInvestmentAmount, ps),
		}
	}
	return statements, nil
}

// UpdateAccount applies patch to the account and persists it.
func (s *Service) UpdateAccount(ctx context.Context, id string, patch AccountPatch) (Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if patch.IsEmpty() {
		return account, nil
	}

	updated := patch.Apply(account)
	updated.UpdatedAt = s.Now()
	if err := updated.Validate(); err != nil {
		return Account{}, err
	}
	if err := s.Store.UpdateAccount(ctx, updated); err != nil {
		return Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account and every one of its periods.
func (s *Service) DeleteAccount(ctx context.Context, id string) (int, error) {
	if err := ValidateID(id); err != nil {
		return 0, err
	}
	return s.Store.DeleteAccount(ctx, id)
}

// =============================================================================
// PERIODS
// =============================================================================

// GeneratePeriods runs the Schedule Generator for the account and inserts
// the months not yet present. Safe to call repeatedly and concurrently.
func (s *Service) GeneratePeriods(ctx context.Context, accountID string) (GenerateResult, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return GenerateResult{}, err
	}

	months := GenerateSchedule(account.OpenDate, account.CloseDate)
	if len(months) == 0 {
		return GenerateResult{}, nil
	}

	inserted, err := s.Store.InsertPeriods(ctx, accountID, NewPeriods(accountID, months, s.Now()))
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{
		Generated: inserted,
		Skipped:   len(months) - inserted,
		Total:     len(months),
	}, nil
}

// ListPeriods returns the account's periods in chronological order.
func (s *Service) ListPeriods(ctx context.Context, accountID string) ([]Period, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.Store.ListPeriods(ctx, PeriodFilter{AccountID: accountID})
}

// UpdatePeriod changes a period's amount and/or paid flag.
func (s *Service) UpdatePeriod(ctx context.Context, id string, patch PeriodPatch) (Period, error) {
	if err := ValidateID(id); err != nil {
		return Period{}, err
	}
	if err := patch.Validate(); err != nil {
		return Period{}, err
	}
	return s.Store.UpdatePeriod(ctx, id, patch, s.Now())
}

// PayThrough marks every period up to and including asOf as paid.
// An empty accountID applies to all accounts.
func (s *Service) PayThrough(ctx context.Context, accountID string, asOf MonthKey) (int, error) {
	if accountID != "" {
		if _, err := s.GetAccount(ctx, accountID); err != nil {
			return 0, err
		}
	}
	return s.Store.SetPaidThrough(ctx, accountID, asOf, s.Now())
}

// UnpayAll marks every period unpaid. An empty accountID applies to all
// accounts.
func (s *Service) UnpayAll(ctx context.Context, accountID string) (int, error) {
	if accountID != "" {
		if _, err := s.GetAccount(ctx, accountID); err != nil {
			return 0, err
		}
	}
	return s.Store.SetAllUnpaid(ctx, accountID, s.Now())
}

// MonthlyEntries returns every period of month joined with its account,
// ordered by account holder name.
func (s *Service) MonthlyEntries(ctx context.Context, month MonthKey) ([]MonthlyEntry, error) {
	if !month.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "month", Message: "is not a valid month"}}}
	}

	periods, err := s.Store.ListPeriods(ctx, PeriodFilter{Month: &month})
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return []MonthlyEntry{}, nil
	}

	accounts, err := s.Store.ListAccounts(ctx, AccountFilter{})
	if err != nil {
		return nil, err
	}
	byPeriodAccount := make(map[string][]Period, len(periods))
	for _, p := range periods {
		byPeriodAccount[p.AccountID] = append(byPeriodAccount[p.AccountID], p)
	}

	// accounts are already ordered by name
	entries := make([]MonthlyEntry, 0, len(periods))
	for _, a := range accounts {
		for _, p := range byPeriodAccount[a.ID] {
			entries = append(entries, MonthlyEntry{Account: a, Period: p})
		}
	}
	return entries, nil
}

// Reset clears all accounts and periods.
func (s *Service) Reset(ctx context.Context) error {
	return s.Store.Reset(ctx)
}
