/*
schedule.go - Schedule Generator

PURPOSE:
  Derives the monthly periods of an account from its open and close dates.
  One period per calendar month, open month through close month inclusive.

DAY OF MONTH:
  Only the month matters. Jan 31 -> Feb -> Mar is walked month by month on
  normalized keys, so short months are never skipped by date overflow.

INVERTED RANGE:
  If open is after close the schedule is empty. Account validation rejects
  such ranges on write, so this only matters for direct callers.

IDEMPOTENCE:
  The generator is pure. De-duplication against existing periods is the
  store's job (InsertPeriods skips months already present, atomically).

SEE ALSO:
  - month.go: MonthKey
  - service.go: GeneratePeriods use-case
*/
package deposit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateSchedule returns every calendar month from open through close,
// ascending and without duplicates.
func GenerateSchedule(open, close time.Time) []MonthKey {
	if DateOf(open).After(DateOf(close)) {
		return nil
	}

	first, last := MonthOf(open), MonthOf(close)
	months := make([]MonthKey, 0, MonthsBetween(first, last)+1)
	for m := first; m.BeforeOrEqual(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// NewPeriods builds unpaid, zero-amount periods for the given months.
func NewPeriods(accountID string, months []MonthKey, now time.Time) []Period {
	periods := make([]Period, len(months))
	for i, m := range months {
		periods[i] = Period{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Month:     m,
			Amount:    decimal.Zero,
			Paid:      false,
			UpdatedAt: now,
		}
	}
	return periods
}
