package deposit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/deposit-tracker/deposit"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func period(month time.Month, amount string, paid bool) deposit.Period {
	return deposit.Period{Month: mk(2025, month), Amount: amt(amount), Paid: paid}
}

func TestRemaining_CountsOnlyPaidPeriods(t *testing.T) {
	// GIVEN: total 12000 and periods [1000 paid, 1000 unpaid, 1000 paid]
	periods := []deposit.Period{
		period(time.January, "1000", true),
		period(time.February, "1000", false),
		period(time.March, "1000", true),
	}

	// WHEN: reconciled
	rec := deposit.Reconcile(amt("12000"), periods)

	// THEN: 2000 paid, 10000 remaining
	assert.True(t, rec.Paid.Equal(amt("2000")), "paid=%s", rec.Paid)
	assert.True(t, rec.Remaining.Equal(amt("10000")), "remaining=%s", rec.Remaining)
	assert.Equal(t, 3, rec.PeriodCount)
	assert.Equal(t, 2, rec.PaidCount)
	assert.Equal(t, 1, rec.UnpaidCount)
	assert.True(t, deposit.Remaining(amt("12000"), periods).Equal(rec.Remaining))
}

func TestRemaining_NothingPaid(t *testing.T) {
	periods := []deposit.Period{
		period(time.January, "500", false),
		period(time.February, "0", false),
	}
	assert.True(t, deposit.Remaining(amt("6000"), periods).Equal(amt("6000")))
}

func TestRemaining_NoPeriods(t *testing.T) {
	rec := deposit.Reconcile(amt("6000"), nil)
	assert.True(t, rec.Remaining.Equal(amt("6000")))
	assert.True(t, rec.Paid.IsZero())
	assert.Zero(t, rec.PeriodCount)
}

func TestRemaining_OverpaymentIsNegative(t *testing.T) {
	periods := []deposit.Period{
		period(time.January, "700", true),
		period(time.February, "700", true),
	}
	assert.True(t, deposit.Remaining(amt("1000"), periods).Equal(amt("-400")))
}

func TestRemaining_UnpaidAmountsIgnored(t *testing.T) {
	// An amount recorded on an unpaid period does not reduce the balance.
	periods := []deposit.Period{period(time.January, "9999", false)}
	assert.True(t, deposit.PaidAmount(periods).IsZero())
}

func TestRemaining_DecimalPrecision(t *testing.T) {
	periods := []deposit.Period{
		period(time.January, "0.1", true),
		period(time.February, "0.2", true),
	}
	assert.Equal(t, "0.7", deposit.Remaining(amt("1"), periods).String())
}
