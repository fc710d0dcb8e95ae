/*
reconcile.go - Reconciliation Calculator

PURPOSE:
  Answers "how much is left to pay on this account?"

FORMULA:
  Remaining = TotalInvestmentAmount - sum(period.Amount for paid periods)

  Unpaid periods never count, whatever their amount. The result is not
  clamped: overpayment produces a negative remaining amount.

DERIVED, NOT STORED:
  Reconciliation runs on every read so it always reflects the latest period
  states. Nothing here touches the store.

EXAMPLE:
  total = 12000, periods = [1000 paid, 1000 unpaid, 1000 paid]
  Paid = 2000, Remaining = 10000
*/
package deposit

import "github.com/shopspring/decimal"

// Reconciliation is the derived payment state of an account.
type Reconciliation struct {
	Total       decimal.Decimal
	Paid        decimal.Decimal
	Remaining   decimal.Decimal
	PeriodCount int
	PaidCount   int
	UnpaidCount int
}

// PaidAmount sums the amounts of paid periods.
func PaidAmount(periods []Period) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range periods {
		if p.Paid {
			paid = paid.Add(p.Amount)
		}
	}
	return paid
}

// Remaining returns total minus the paid amount.
func Remaining(total decimal.Decimal, periods []Period) decimal.Decimal {
	return total.Sub(PaidAmount(periods))
}

// Reconcile computes the full reconciliation for total over periods.
func Reconcile(total decimal.Decimal, periods []Period) Reconciliation {
	r := Reconciliation{
		Total:       total,
		Paid:        PaidAmount(periods),
		PeriodCount: len(periods),
	}
	for _, p := range periods {
		if p.Paid {
			r.PaidCount++
		} else {
			r.UnpaidCount++
		}
	}
	r.Remaining = total.Sub(r.Paid)
	return r
}
