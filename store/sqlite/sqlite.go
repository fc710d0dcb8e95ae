/*
Package sqlite provides a SQLite-backed implementation of deposit.Store.

KEY TABLES:
  accounts: recurring-deposit plans
  periods:  one row per (account, year, month), FK to accounts with
            ON DELETE CASCADE

UNIQUENESS:
  periods has UNIQUE(account_id, year, month). InsertPeriods uses
  INSERT ... ON CONFLICT DO NOTHING inside one transaction, so concurrent
  generation for the same account can never produce duplicate months.

CASCADE DELETE:
  DeleteAccount deletes the periods and the account in one transaction.
  The foreign key cascade covers any other path that removes an account.

MONEY:
  Amounts are stored as decimal strings (no float rounding).

CONCURRENCY:
  One connection (SQLite allows a single writer), plus sync.RWMutex around
  every call.

MIGRATION:
  Schema is migrated on New() with goose from the embedded migrations/ dir.

USAGE:
  store, err := sqlite.New("./data/deposits.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/warp/deposit-tracker/deposit"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements deposit.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ deposit.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, first_name, second_name, account_number1, account_number2,
	cif_number1, cif_number2, mobile_number, nominee_name,
	monthly_amount, total_investment_amount, maturity_amount,
	open_date, close_date, account_type, created_at, updated_at`

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a deposit.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.FirstName, a.SecondName, a.AccountNumber1, a.AccountNumber2,
		a.CIFNumber1, a.CIFNumber2, a.MobileNumber, a.NomineeName,
		a.MonthlyAmount.String(), a.TotalInvestmentAmount.String(), a.MaturityAmount.String(),
		a.OpenDate.Format(deposit.DateLayout), a.CloseDate.Format(deposit.DateLayout),
		a.AccountType,
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (deposit.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return deposit.Account{}, deposit.ErrAccountNotFound
	}
	return a, err
}

// ListAccounts returns accounts ordered by first name.
func (s *Store) ListAccounts(ctx context.Context, filter deposit.AccountFilter) ([]deposit.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + accountColumns + " FROM accounts"
	var args []any
	if filter.AccountType != "" {
		query += " WHERE account_type = ? COLLATE NOCASE"
		args = append(args, filter.AccountType)
	}
	query += " ORDER BY first_name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []deposit.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount overwrites the mutable fields of an existing account.
func (s *Store) UpdateAccount(ctx context.Context, a deposit.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE accounts SET
			first_name = ?, second_name = ?,
			account_number1 = ?, account_number2 = ?,
			cif_number1 = ?, cif_number2 = ?,
			mobile_number = ?, nominee_name = ?,
			monthly_amount = ?, total_investment_amount = ?, maturity_amount = ?,
			open_date = ?, close_date = ?, account_type = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		a.FirstName, a.SecondName,
		a.AccountNumber1, a.AccountNumber2,
		a.CIFNumber1, a.CIFNumber2,
		a.MobileNumber, a.NomineeName,
		a.MonthlyAmount.String(), a.TotalInvestmentAmount.String(), a.MaturityAmount.String(),
		a.OpenDate.Format(deposit.DateLayout), a.CloseDate.Format(deposit.DateLayout),
		a.AccountType, a.UpdatedAt.UTC().Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return deposit.ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes the periods and the account in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM periods WHERE account_id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete periods: %w", err)
		}
		n, _ := res.RowsAffected()
		removed = int(n)

		res, err = tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return deposit.ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (deposit.Account, error) {
	var (
		a                        deposit.Account
		monthly, total, maturity string
		openDate, closeDate      string
		createdAt, updatedAt     string
	)

	err := row.Scan(
		&a.ID, &a.FirstName, &a.SecondName, &a.AccountNumber1, &a.AccountNumber2,
		&a.CIFNumber1, &a.CIFNumber2, &a.MobileNumber, &a.NomineeName,
		&monthly, &total, &maturity,
		&openDate, &closeDate, &a.AccountType, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	if err != nil {
		return a, fmt.Errorf("failed to scan account: %w", err)
	}

	if a.MonthlyAmount, err = parseAmount(monthly); err != nil {
		return a, err
	}
	if a.TotalInvestmentAmount, err = parseAmount(total); err != nil {
		return a, err
	}
	if a.MaturityAmount, err = parseAmount(maturity); err != nil {
		return a, err
	}
	a.OpenDate, _ = time.Parse(deposit.DateLayout, openDate)
	a.CloseDate, _ = time.Parse(deposit.DateLayout, closeDate)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}

// =============================================================================
// PERIODS
// =============================================================================

const periodColumns = "id, account_id, year, month, amount, paid, updated_at"

// InsertPeriods inserts the months not yet present for the account.
// The account check and every insert share one transaction.
func (s *Store) InsertPeriods(ctx context.Context, accountID string, periods []deposit.Period) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE id = ?", accountID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if exists == 0 {
			return deposit.ErrAccountNotFound
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO periods (`+periodColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id, year, month) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare period insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range periods {
			res, err := stmt.ExecContext(ctx,
				p.ID, accountID, p.Month.Year, int(p.Month.Month),
				p.Amount.String(), p.Paid, p.UpdatedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				return fmt.Errorf("failed to insert period %s: %w", p.Month, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListPeriods returns periods ordered by (year, month, account).
func (s *Store) ListPeriods(ctx context.Context, filter deposit.PeriodFilter) ([]deposit.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Month != nil {
		where = append(where, "year = ? AND month = ?")
		args = append(args, filter.Month.Year, int(filter.Month.Month))
	}

	query := "SELECT " + periodColumns + " FROM periods"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year, month, account_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := []deposit.Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// GetPeriod retrieves a period by ID.
func (s *Store) GetPeriod(ctx context.Context, id string) (deposit.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPeriod(ctx, s.db, id)
}

func (s *Store) getPeriod(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id string) (deposit.Period, error) {
	row := q.QueryRowContext(ctx, "SELECT "+periodColumns+" FROM periods WHERE id = ?", id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return deposit.Period{}, deposit.ErrPeriodNotFound
	}
	return p, err
}

// UpdatePeriod applies patch and returns the stored period.
func (s *Store) UpdatePeriod(ctx context.Context, id string, patch deposit.PeriodPatch, at time.Time) (deposit.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []any{at.UTC().Format(time.RFC3339)}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.String())
	}
	if patch.Paid != nil {
		sets = append(sets, "paid = ?")
		args = append(args, *patch.Paid)
	}
	args = append(args, id)

	var updated deposit.Period
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE periods SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return fmt.Errorf("failed to update period: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return deposit.ErrPeriodNotFound
		}
		updated, err = s.getPeriod(ctx, tx, id)
		return err
	})
	return updated, err
}

// SetPaidThrough marks unpaid periods up to and including through as paid.
func (s *Store) SetPaidThrough(ctx context.Context, accountID string, through deposit.MonthKey, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE periods SET paid = 1, updated_at = ?
		WHERE paid = 0 AND (year * 12 + month) <= ?`
	args := []any{at.UTC().Format(time.RFC3339), through.Year*12 + int(through.Month)}
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	return s.execCount(ctx, "mark periods paid", query, args...)
}

// SetAllUnpaid marks every paid period unpaid.
func (s *Store) SetAllUnpaid(ctx context.Context, accountID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "UPDATE periods SET paid = 0, updated_at = ? WHERE paid = 1"
	args := []any{at.UTC().Format(time.RFC3339)}
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	return s.execCount(ctx, "mark periods unpaid", query, args...)
}

func scanPeriod(row rowScanner) (deposit.Period, error) {
	var (
		p         deposit.Period
		month     int
		amount    string
		updatedAt string
	)

	err := row.Scan(&p.ID, &p.AccountID, &p.Month.Year, &month, &amount, &p.Paid, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan period: %w", err)
	}

	p.Month.Month = time.Month(month)
	if p.Amount, err = parseAmount(amount); err != nil {
		return p, err
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"periods", "accounts"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction. Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) execCount(ctx context.Context, op, query string, args ...any) (int, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	return int(n), nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", value, err)
	}
	return d, nil
}
