/*
Package export renders spreadsheet reports of accounts and periods.

REPORTS:
  Monthly:  every period of one month joined with its account's fields
  Account:  one account's details, reconciliation and full period history

Reports are built in memory with excelize and written straight to the HTTP
response; nothing is saved to disk.
*/
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/deposit-tracker/deposit"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetMonthly      = "Installments"
	sheetAccount      = "Account"
	sheetInstallments = "Installments"
)

// Report is a generated workbook and the file name to offer it under.
type Report struct {
	FileName string
	File     *excelize.File
}

// Write serializes the workbook to w.
func (r *Report) Write(w io.Writer) error {
	return r.File.Write(w)
}

// Close releases the workbook's resources.
func (r *Report) Close() error {
	return r.File.Close()
}

var monthlyHeader = []string{
	"Name", "Account Number 1", "Account Number 2", "CIF Number 1", "CIF Number 2",
	"Mobile Number", "Nominee", "Account Type", "Monthly Amount",
	"Month", "Year", "Amount", "Status",
}

// MonthlyReport lists the given entries of one month, one row per period,
// followed by a totals row.
func MonthlyReport(month deposit.MonthKey, entries []deposit.MonthlyEntry) (*Report, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetMonthly); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, sheetMonthly, 1, toAny(monthlyHeader)); err != nil {
		f.Close()
		return nil, err
	}

	total, paid := decimal.Zero, decimal.Zero
	for i, e := range entries {
		a, p := e.Account, e.Period
		row := []any{
			a.HolderName(), a.AccountNumber1, a.AccountNumber2, a.CIFNumber1, a.CIFNumber2,
			a.MobileNumber, a.NomineeName, a.AccountType, a.MonthlyAmount.InexactFloat64(),
			p.Month.Label(), p.Month.Year, p.Amount.InexactFloat64(), status(p.Paid),
		}
		if err := writeRow(f, sheetMonthly, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
		total = total.Add(p.Amount)
		if p.Paid {
			paid = paid.Add(p.Amount)
		}
	}

	totalsRow := len(entries) + 3
	amountCol := len(monthlyHeader) - 1
	_ = f.SetCellStr(sheetMonthly, cell(amountCol-1, totalsRow), "Total")
	_ = f.SetCellValue(sheetMonthly, cell(amountCol, totalsRow), total.InexactFloat64())
	_ = f.SetCellStr(sheetMonthly, cell(amountCol-1, totalsRow+1), "Paid")
	_ = f.SetCellValue(sheetMonthly, cell(amountCol, totalsRow+1), paid.InexactFloat64())

	if err := ApplyDefaultFormatting(f, sheetMonthly); err != nil {
		f.Close()
		return nil, err
	}

	return &Report{
		FileName: fmt.Sprintf("Installments_%s_%d.xlsx", month.Label(), month.Year),
		File:     f,
	}, nil
}

// AccountReport renders the account details with its reconciliation on one
// sheet and the full period history with running totals on another.
func AccountReport(st deposit.Statement) (*Report, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetAccount); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetInstallments); err != nil {
		f.Close()
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	a, rec := st.Account, st.Reconciliation
	details := [][]any{
		{"Field", "Value"},
		{"First Name", a.FirstName},
		{"Second Name", a.SecondName},
		{"Account Number 1", a.AccountNumber1},
		{"Account Number 2", a.AccountNumber2},
		{"CIF Number 1", a.CIFNumber1},
		{"CIF Number 2", a.CIFNumber2},
		{"Mobile Number", a.MobileNumber},
		{"Nominee", a.NomineeName},
		{"Account Type", a.AccountType},
		{"Monthly Amount", a.MonthlyAmount.InexactFloat64()},
		{"Total Investment Amount", a.TotalInvestmentAmount.InexactFloat64()},
		{"Maturity Amount", a.MaturityAmount.InexactFloat64()},
		{"Account Open Date", a.OpenDate.Format(deposit.DateLayout)},
		{"Account Close Date", a.CloseDate.Format(deposit.DateLayout)},
		{"Paid Amount", rec.Paid.InexactFloat64()},
		{"Remaining Amount", rec.Remaining.InexactFloat64()},
		{"Paid Installments", rec.PaidCount},
		{"Unpaid Installments", rec.UnpaidCount},
	}
	for i, row := range details {
		if err := writeRow(f, sheetAccount, i+1, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	header := []any{"Month", "Year", "Amount", "Status", "Paid To Date", "Remaining"}
	if err := writeRow(f, sheetInstallments, 1, header); err != nil {
		f.Close()
		return nil, err
	}
	paidToDate := decimal.Zero
	for i, p := range st.Periods {
		if p.Paid {
			paidToDate = paidToDate.Add(p.Amount)
		}
		row := []any{
			p.Month.Label(), p.Month.Year, p.Amount.InexactFloat64(), status(p.Paid),
			paidToDate.InexactFloat64(), a.TotalInvestmentAmount.Sub(paidToDate).InexactFloat64(),
		}
		if err := writeRow(f, sheetInstallments, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	for _, sheet := range []string{sheetAccount, sheetInstallments} {
		if err := ApplyDefaultFormatting(f, sheet); err != nil {
			f.Close()
			return nil, err
		}
	}

	name := sanitizeFileName(a.HolderName())
	if name == "" {
		name = "Account"
	}
	return &Report{FileName: name + "_Report.xlsx", File: f}, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for c, v := range values {
		ref := cell(c+1, row)
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			return fmt.Errorf("set cell %s: %w", ref, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func status(paid bool) string {
	if paid {
		return "Paid"
	}
	return "Unpaid"
}
