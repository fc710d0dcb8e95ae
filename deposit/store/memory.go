// Package store provides deposit.Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/deposit-tracker/deposit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	accounts map[string]deposit.Account
	periods  map[string]deposit.Period
	byMonth  map[key]string // (account, month) -> period ID
}

type key struct {
	AccountID string
	Month     deposit.MonthKey
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]deposit.Account),
		periods:  make(map[string]deposit.Period),
		byMonth:  make(map[key]string),
	}
}

var _ deposit.Store = (*Memory)(nil)

func (m *Memory) CreateAccount(_ context.Context, a deposit.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (deposit.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return deposit.Account{}, deposit.ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context, filter deposit.AccountFilter) ([]deposit.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]deposit.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if filter.AccountType != "" && !strings.EqualFold(a.AccountType, filter.AccountType) {
			continue
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].FirstName != accounts[j].FirstName {
			return accounts[i].FirstName < accounts[j].FirstName
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (m *Memory) UpdateAccount(_ context.Context, a deposit.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return deposit.ErrAccountNotFound
	}
	m.accounts[a.ID] = a
	return nil
}

// DeleteAccount removes the account and its periods under one lock.
func (m *Memory) DeleteAccount(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return 0, deposit.ErrAccountNotFound
	}
	removed := 0
	for pid, p := range m.periods {
		if p.AccountID == id {
			delete(m.periods, pid)
			delete(m.byMonth, key{AccountID: id, Month: p.Month})
			removed++
		}
	}
	delete(m.accounts, id)
	return removed, nil
}

// InsertPeriods checks and inserts under one lock, so concurrent callers
// cannot both insert the same month.
func (m *Memory) InsertPeriods(_ context.Context, accountID string, periods []deposit.Period) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[accountID]; !ok {
		return 0, deposit.ErrAccountNotFound
	}
	inserted := 0
	for _, p := range periods {
		k := key{AccountID: accountID, Month: p.Month}
		if _, exists := m.byMonth[k]; exists {
			continue
		}
		p.AccountID = accountID
		m.periods[p.ID] = p
		m.byMonth[k] = p.ID
		inserted++
	}
	return inserted, nil
}

func (m *Memory) ListPeriods(_ context.Context, filter deposit.PeriodFilter) ([]deposit.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	periods := make([]deposit.Period, 0)
	for _, p := range m.periods {
		if filter.AccountID != "" && p.AccountID != filter.AccountID {
			continue
		}
		if filter.Month != nil && p.Month != *filter.Month {
			continue
		}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Month != periods[j].Month {
			return periods[i].Month.Before(periods[j].Month)
		}
		return periods[i].AccountID < periods[j].AccountID
	})
	return periods, nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (deposit.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[id]
	if !ok {
		return deposit.Period{}, deposit.ErrPeriodNotFound
	}
	return p, nil
}

func (m *Memory) UpdatePeriod(_ context.Context, id string, patch deposit.PeriodPatch, at time.Time) (deposit.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.periods[id]
	if !ok {
		return deposit.Period{}, deposit.ErrPeriodNotFound
	}
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.Paid != nil {
		p.Paid = *patch.Paid
	}
	p.UpdatedAt = at
	m.periods[id] = p
	return p, nil
}

func (m *Memory) SetPaidThrough(_ context.Context, accountID string, through deposit.MonthKey, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for id, p := range m.periods {
		if accountID != "" && p.AccountID != accountID {
			continue
		}
		if p.Paid || p.Month.After(through) {
			continue
		}
		p.Paid = true
		p.UpdatedAt = at
		m.periods[id] = p
		changed++
	}
	return changed, nil
}

func (m *Memory) SetAllUnpaid(_ context.Context, accountID string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for id, p := range m.periods {
		if accountID != "" && p.AccountID != accountID {
			continue
		}
		if !p.Paid {
			continue
		}
		p.Paid = false
		p.UpdatedAt = at
		m.periods[id] = p
		changed++
	}
	return changed, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]deposit.Account)
	m.periods = make(map[string]deposit.Period)
	m.byMonth = make(map[key]string)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
