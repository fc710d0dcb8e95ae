package deposit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/deposit-tracker/deposit"
	"github.com/warp/deposit-tracker/deposit/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestService() *deposit.Service {
	svc := deposit.NewService(store.NewMemory())
	svc.Now = func() time.Time { return time.Date(2025, time.February, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func sampleAccount(open, close time.Time) deposit.Account {
	return deposit.Account{
		FirstName:             "Asha",
		SecondName:            "Rao",
		AccountNumber1:        "1000000001",
		CIFNumber1:            "CIF00001",
		MobileNumber:          "9876500001",
		NomineeName:           "Kiran Rao",
		MonthlyAmount:         amt("1000"),
		TotalInvestmentAmount: amt("12000"),
		MaturityAmount:        amt("12840"),
		OpenDate:              open,
		CloseDate:             close,
		AccountType:           "RD",
	}
}

func createAccount(t *testing.T, svc *deposit.Service, open, close time.Time) deposit.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), sampleAccount(open, close))
	require.NoError(t, err)
	return a
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAccount_AssignsIDAndTimestamps(t *testing.T) {
	svc := newTestService()

	a := createAccount(t, svc, d(2025, time.January, 15), d(2025, time.December, 15))

	_, err := uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, svc.Now(), a.CreatedAt)
	assert.Equal(t, svc.Now(), a.UpdatedAt)
}

func TestCreateAccount_RejectsInvertedRange(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateAccount(context.Background(), sampleAccount(d(2025, time.June, 1), d(2025, time.January, 1)))

	assert.ErrorIs(t, err, deposit.ErrInvalidDateRange)
	assert.True(t, deposit.IsClientError(err))
}

func TestCreateAccount_RequiredFields(t *testing.T) {
	svc := newTestService()
	a := sampleAccount(d(2025, time.January, 1), d(2025, time.December, 31))
	a.FirstName = "  "
	a.NomineeName = ""
	a.MonthlyAmount = amt("-1")

	_, err := svc.CreateAccount(context.Background(), a)

	var verr *deposit.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["first_name"])
	assert.True(t, fields["nominee_name"])
	assert.True(t, fields["monthly_amount"])
}

func TestGetAccount_InvalidAndMissingIDs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, deposit.ErrInvalidID)

	_, err = svc.GetAccount(ctx, uuid.NewString())
	assert.ErrorIs(t, err, deposit.ErrAccountNotFound)
	assert.True(t, deposit.IsNotFound(err))
}

func TestUpdateAccount_PartialPatch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.December, 31))

	mobile := "9000000000"
	updated, err := svc.UpdateAccount(ctx, a.ID, deposit.AccountPatch{MobileNumber: &mobile})
	require.NoError(t, err)

	assert.Equal(t, mobile, updated.MobileNumber)
	assert.Equal(t, a.FirstName, updated.FirstName)
	assert.True(t, updated.TotalInvestmentAmount.Equal(a.TotalInvestmentAmount))
}

func TestUpdateAccount_CannotInvertRange(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.December, 31))

	closeDate := d(2024, time.December, 31)
	_, err := svc.UpdateAccount(ctx, a.ID, deposit.AccountPatch{CloseDate: &closeDate})
	assert.ErrorIs(t, err, deposit.ErrInvalidDateRange)

	got, err := svc.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, d(2025, time.December, 31), got.CloseDate)
}

func TestUpdateAccount_CannotBlankRequiredField(t *testing.T) {
	svc := newTestService()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.December, 31))

	empty := ""
	_, err := svc.UpdateAccount(context.Background(), a.ID, deposit.AccountPatch{FirstName: &empty})
	assert.ErrorIs(t, err, deposit.ErrValidation)
}

func TestDeleteAccount_CascadesPeriods(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.March, 31))
	other := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.February, 28))
	_, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.GeneratePeriods(ctx, other.ID)
	require.NoError(t, err)

	removed, err := svc.DeleteAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	all, err := svc.Store.ListPeriods(ctx, deposit.PeriodFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, p := range all {
		assert.Equal(t, other.ID, p.AccountID)
	}

	_, err = svc.DeleteAccount(ctx, a.ID)
	assert.ErrorIs(t, err, deposit.ErrAccountNotFound)
}

// =============================================================================
// GENERATION
// =============================================================================

func TestGeneratePeriods_IsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 15), d(2025, time.March, 10))

	// WHEN: generated twice
	first, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)
	second, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)

	// THEN: three periods once, nothing the second time
	assert.Equal(t, deposit.GenerateResult{Generated: 3, Skipped: 0, Total: 3}, first)
	assert.Equal(t, deposit.GenerateResult{Generated: 0, Skipped: 3, Total: 3}, second)

	periods, err := svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, "Jan", periods[0].Month.Label())
	assert.Equal(t, "Feb", periods[1].Month.Label())
	assert.Equal(t, "Mar", periods[2].Month.Label())
}

func TestGeneratePeriods_KeepsExistingPeriodState(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.February, 28))
	_, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)

	periods, err := svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)
	paid, amount := true, amt("1000")
	_, err = svc.UpdatePeriod(ctx, periods[0].ID, deposit.PeriodPatch{Amount: &amount, Paid: &paid})
	require.NoError(t, err)

	// Extend the range and regenerate.
	closeDate := d(2025, time.April, 30)
	_, err = svc.UpdateAccount(ctx, a.ID, deposit.AccountPatch{CloseDate: &closeDate})
	require.NoError(t, err)
	res, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Generated)

	periods, err = svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, periods, 4)
	assert.True(t, periods[0].Paid)
	assert.True(t, periods[0].Amount.Equal(amount))
}

func TestGeneratePeriods_ConcurrentCallsNoDuplicates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.December, 31))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.GeneratePeriods(ctx, a.ID)
			assert.NoError(t, err)
			mu.Lock()
			total += res.Generated
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 12, total)
	periods, err := svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, periods, 12)
}

func TestGeneratePeriods_UnknownAccount(t *testing.T) {
	svc := newTestService()
	_, err := svc.GeneratePeriods(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, deposit.ErrAccountNotFound)
}

// =============================================================================
// PERIOD UPDATES AND RECONCILIATION
// =============================================================================

func TestStatement_ReflectsPaidPeriods(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.December, 31))
	_, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)
	periods, err := svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)

	paid, amount := true, amt("1000")
	for _, p := range periods[:2] {
		_, err := svc.UpdatePeriod(ctx, p.ID, deposit.PeriodPatch{Amount: &amount, Paid: &paid})
		require.NoError(t, err)
	}
	// Amount recorded but not paid.
	_, err = svc.UpdatePeriod(ctx, periods[2].ID, deposit.PeriodPatch{Amount: &amount})
	require.NoError(t, err)

	st, err := svc.Statement(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, st.Reconciliation.Remaining.Equal(amt("10000")), "remaining=%s", st.Reconciliation.Remaining)
	assert.Equal(t, 2, st.Reconciliation.PaidCount)
	assert.Equal(t, 12, st.Reconciliation.PeriodCount)
}

func TestUpdatePeriod_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.UpdatePeriod(ctx, "bad", deposit.PeriodPatch{})
	assert.ErrorIs(t, err, deposit.ErrInvalidID)

	_, err = svc.UpdatePeriod(ctx, uuid.NewString(), deposit.PeriodPatch{})
	assert.ErrorIs(t, err, deposit.ErrValidation)

	neg := decimal.NewFromInt(-5)
	_, err = svc.UpdatePeriod(ctx, uuid.NewString(), deposit.PeriodPatch{Amount: &neg})
	assert.ErrorIs(t, err, deposit.ErrValidation)

	paid := true
	_, err = svc.UpdatePeriod(ctx, uuid.NewString(), deposit.PeriodPatch{Paid: &paid})
	assert.ErrorIs(t, err, deposit.ErrPeriodNotFound)
}

func TestPayThrough_StopsAtMonth(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.June, 30))
	b := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.June, 30))
	for _, id := range []string{a.ID, b.ID} {
		_, err := svc.GeneratePeriods(ctx, id)
		require.NoError(t, err)
	}

	// WHEN: account a is paid through February 2025
	n, err := svc.PayThrough(ctx, a.ID, mk(2025, time.February))
	require.NoError(t, err)

	// THEN: Jan and Feb of a are paid, nothing else
	assert.Equal(t, 2, n)
	periods, err := svc.ListPeriods(ctx, a.ID)
	require.NoError(t, err)
	for _, p := range periods {
		assert.Equal(t, !p.Month.After(mk(2025, time.February)), p.Paid, p.Month.String())
	}
	others, err := svc.ListPeriods(ctx, b.ID)
	require.NoError(t, err)
	for _, p := range others {
		assert.False(t, p.Paid)
	}

	// Paying all accounts only touches the remaining unpaid months.
	n, err = svc.PayThrough(ctx, "", mk(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, 1+3, n)
}

func TestUnpayAll(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.April, 30))
	_, err := svc.GeneratePeriods(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.PayThrough(ctx, a.ID, mk(2025, time.December))
	require.NoError(t, err)

	n, err := svc.UnpayAll(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	st, err := svc.Statement(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, st.Reconciliation.PaidCount)

	_, err = svc.UnpayAll(ctx, uuid.NewString())
	assert.ErrorIs(t, err, deposit.ErrAccountNotFound)
}

func TestMonthlyEntries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := createAccount(t, svc, d(2025, time.January, 1), d(2025, time.March, 31))
	b := createAccount(t, svc, d(2025, time.March, 1), d(2025, time.May, 31))
	for _, id := range []string{a.ID, b.ID} {
		_, err := svc.GeneratePeriods(ctx, id)
		require.NoError(t, err)
	}

	entries, err := svc.MonthlyEntries(ctx, mk(2025, time.March))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = svc.MonthlyEntries(ctx, mk(2025, time.May))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].Account.ID)

	entries, err = svc.MonthlyEntries(ctx, mk(2026, time.May))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.MonthlyEntries(ctx, deposit.MonthKey{Year: 2025, Month: 13})
	assert.ErrorIs(t, err, deposit.ErrValidation)
}

func TestListStatements_FilterByType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	createAccount(t, svc, d(2025, time.January, 1), d(2025, time.March, 31))
	sip := sampleAccount(d(2025, time.January, 1), d(2025, time.March, 31))
	sip.FirstName = "Meena"
	sip.AccountType = "SIP"
	_, err := svc.CreateAccount(ctx, sip)
	require.NoError(t, err)

	all, err := svc.ListStatements(ctx, deposit.AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := svc.ListStatements(ctx, deposit.AccountFilter{AccountType: "sip"})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "Meena", only[0].Account.FirstName)
}
