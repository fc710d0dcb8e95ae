/*
store.go - Persistence interface for accounts and periods

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

ATOMICITY CONTRACT:
  - InsertPeriods: all-or-nothing; months already present for the account
    are skipped inside the same atomic step, so concurrent callers can never
    produce two periods for one (account, year, month).
  - DeleteAccount: removes the account and all of its periods atomically.
  - SetPaidThrough / SetAllUnpaid: one atomic bulk write.

ERRORS:
  Missing rows are reported with ErrAccountNotFound / ErrPeriodNotFound.
  Driver failures are wrapped with context and returned as-is otherwise.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (production)
  - deposit/store/memory.go: in-memory (tests, dev)
*/
package deposit

import (
	"context"
	"time"
)

// Store handles persistence of accounts and periods.
type Store interface {
	CreateAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]Account, error)
	UpdateAccount(ctx context.Context, a Account) error

	// DeleteAccount removes the account and its periods, returning how many
	// periods were removed.
	DeleteAccount(ctx context.Context, id string) (int, error)

	// InsertPeriods inserts the periods whose month is not yet present for
	// accountID and returns how many were inserted.
	InsertPeriods(ctx context.Context, accountID string, periods []Period) (int, error)

	// ListPeriods returns periods in chronological order.
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]Period, error)
	GetPeriod(ctx context.Context, id string) (Period, error)
	UpdatePeriod(ctx context.Context, id string, patch PeriodPatch, at time.Time) (Period, error)

	// SetPaidThrough marks every period up to and including through as paid.
	// An empty accountID applies to all accounts. Returns rows changed.
	SetPaidThrough(ctx context.Context, accountID string, through MonthKey, at time.Time) (int, error)

	// SetAllUnpaid marks every period unpaid. An empty accountID applies to
	// all accounts. Returns rows changed.
	SetAllUnpaid(ctx context.Context, accountID string, at time.Time) (int, error)

	// Reset clears all data (for demo scenarios).
	Reset(ctx context.Context) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
