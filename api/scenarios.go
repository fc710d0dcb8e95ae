/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates accounts, generates their monthly
	schedules and records some payments.

AVAILABLE SCENARIOS:

	single-account:   One yearly plan, first quarter paid
	mixed-portfolio:  Several plan types, partial and complete payment
	overpaid:         Deposits exceeding the planned total (negative remaining)
	no-schedule:      Accounts created without generated installments

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create accounts via deposit.Service
 3. Generate their schedules
 4. Record deposits on some periods

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-portfolio"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: shared helpers
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/deposit-tracker/deposit"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-account",
		Name:        "Single Account",
		Description: "One 12-month plan for 2025 with January to March paid",
	},
	{
		ID:          "mixed-portfolio",
		Name:        "Mixed Portfolio",
		Description: "Three plans of different types, one fully paid",
	},
	{
		ID:          "overpaid",
		Name:        "Overpaid Plan",
		Description: "Deposits above the planned total show a negative remaining amount",
	},
	{
		ID:          "no-schedule",
		Name:        "Accounts Without Schedule",
		Description: "Accounts created but installments not yet generated",
	},
}

type scenarioLoader func(ctx context.Context, svc *deposit.Service) error

var scenarioLoaders = map[string]scenarioLoader{
	"single-account":  loadSingleAccountScenario,
	"mixed-portfolio": loadMixedPortfolioScenario,
	"overpaid":        loadOverpaidScenario,
	"no-schedule":     loadNoScheduleScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Service.Reset(ctx); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	if err := load(ctx, h.Service); err != nil {
		h.writeDomainError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seedAccount struct {
	first, second string
	accountType   string
	monthly       int64
	open, close   time.Time
	// paidMonths deposits the monthly amount into the first n periods
	paidMonths int
	// extra is added to every paid deposit
	extra int64
}

func loadSingleAccountScenario(ctx context.Context, svc *deposit.Service) error {
	return seed(ctx, svc, true, seedAccount{
		first: "Asha", second: "Rao", accountType: "RD",
		monthly: 1000,
		open:  date(2025, time.January, 1),
		close: date(2025, time.December, 31),
		paidMonths: 3,
	})
}

func loadMixedPortfolioScenario(ctx context.Context, svc *deposit.Service) error {
	return seed(ctx, svc, true,
		seedAccount{
			first: "Ravi", second: "Kumar", accountType: "RD",
			monthly: 2000,
			open:  date(2024, time.April, 15),
			close: date(2025, time.March, 15),
			paidMonths: 12,
		},
		seedAccount{
			first: "Meena", accountType: "SIP",
			monthly: 500,
			open:  date(2025, time.January, 10),
			close: date(2026, time.June, 10),
			paidMonths: 8,
		},
		seedAccount{
			first: "Joseph", second: "Mathew", accountType: "PPF",
			monthly: 1500,
			open:  date(2025, time.July, 1),
			close: date(2027, time.June, 30),
		},
	)
}

func loadOverpaidScenario(ctx context.Context, svc *deposit.Service) error {
	return seed(ctx, svc, true, seedAccount{
		first: "Farah", accountType: "RD",
		monthly: 1000,
		open:  date(2025, time.January, 1),
		close: date(2025, time.June, 30),
		paidMonths: 6,
		extra:      250,
	})
}

func loadNoScheduleScenario(ctx context.Context, svc *deposit.Service) error {
	return seed(ctx, svc, false,
		seedAccount{
			first: "Nikhil", accountType: "RD",
			monthly: 800,
			open:  date(2025, time.February, 1),
			close: date(2026, time.January, 31),
		},
		seedAccount{
			first: "Priya", second: "Shah", accountType: "FD",
			monthly: 0,
			open:  date(2025, time.March, 1),
			close: date(2025, time.March, 31),
		},
	)
}

func seed(ctx context.Context, svc *deposit.Service, generate bool, seeds ...seedAccount) error {
	for i, s := range seeds {
		monthly := decimal.NewFromInt(s.monthly)
		months := deposit.MonthsBetween(deposit.MonthOf(s.open), deposit.MonthOf(s.close)) + 1
		total := monthly.Mul(decimal.NewFromInt(int64(months)))

		account, err := svc.CreateAccount(ctx, deposit.Account{
			FirstName:             s.first,
			SecondName:            s.second,
			AccountNumber1:        fmt.Sprintf("1000%06d", i+1),
			CIFNumber1:            fmt.Sprintf("CIF%05d", i+1),
			MobileNumber:          fmt.Sprintf("98765%05d", i+1),
			NomineeName:           "Nominee of " + s.first,
			MonthlyAmount:         monthly,
			TotalInvestmentAmount: total,
			MaturityAmount:        total.Mul(decimal.RequireFromString("1.07")).Round(2),
			OpenDate:              s.open,
			CloseDate:             s.close,
			AccountType:           s.accountType,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", s.first, err)
		}
		if !generate {
			continue
		}

		if _, err := svc.GeneratePeriods(ctx, account.ID); err != nil {
			return fmt.Errorf("generate %s: %w", s.first, err)
		}
		periods, err := svc.ListPeriods(ctx, account.ID)
		if err != nil {
			return err
		}

		paid := true
		amount := monthly.Add(decimal.NewFromInt(s.extra))
		for j := 0; j < s.paidMonths && j < len(periods); j++ {
			patch := deposit.PeriodPatch{Amount: &amount, Paid: &paid}
			if _, err := svc.UpdatePeriod(ctx, periods[j].ID, patch); err != nil {
				return fmt.Errorf("pay %s %s: %w", s.first, periods[j].Month, err)
			}
		}
	}
	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
