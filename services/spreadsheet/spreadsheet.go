// Package spreadsheet reads and writes the XLSX files exchanged with school staff.
package spreadsheet

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/student"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SummarySheet  = "Summary"
	PaymentsSheet = "Payments"
	ExpensesSheet = "Expenses"
)

// student import columns
const (
	colFirstName = iota
	colLastName
	colGrade
	colClassID
	colParentID
	colDateOfBirth
)

var ErrNoSheet = errors.New("the file does not contain any sheet")

type (
	// StudentRow is a student read from row `Row` (1-based, as displayed by spreadsheet apps).
	StudentRow struct {
		Row     int
		Student student.NewStudent
	}

	RowError struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	}
)

// ParseStudents reads students from the first sheet of an XLSX file.
// The header row is skipped, as are blank rows. Rows that cannot be parsed are returned as RowErrors.
func ParseStudents(r io.Reader) ([]StudentRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}

	students := make([]StudentRow, 0, len(rows))
	var skipped []RowError
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue // header
		}
		rowNum := i + 1

		ns := student.NewStudent{
			FirstName: cell(row, colFirstName),
			LastName:  cell(row, colLastName),
			Grade:     cell(row, colGrade),
			ClassID:   nullCell(row, colClassID),
			ParentID:  nullCell(row, colParentID),
		}
		if dob := cell(row, colDateOfBirth); dob != "" {
			if ns.DateOfBirth, err = core.ParseDate(dob); err != nil {
				skipped = append(skipped, RowError{Row: rowNum, Error: "date_of_birth: invalid date, expected YYYY-MM-DD"})
				continue
			}
		}
		students = append(students, StudentRow{Row: rowNum, Student: ns})
	}
	return students, skipped, nil
}

func cell(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

func nullCell(row []string, col int) null.String {
	v := cell(row, col)
	return null.NewString(v, v != "")
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ExportSummary writes `sum` as an XLSX workbook with a Summary, a Payments and an Expenses sheet.
func ExportSummary(sum report.Summary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, errors.Wrap(err, "naming summary sheet")
	}
	summary := [][]interface{}{
		{"From", sum.From.String()},
		{"To", sum.To.String()},
		{"Generated at", sum.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{},
		{"Total collected", sum.TotalCollected.InexactFloat64()},
		{"Total pending", sum.TotalPending.InexactFloat64()},
		{"Total refunded", sum.TotalRefunded.InexactFloat64()},
		{"Total expenses", sum.TotalExpenses.InexactFloat64()},
		{"Balance", sum.Balance.InexactFloat64()},
		{"Payments", sum.PaymentCount},
		{"Expenses", sum.ExpenseCount},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}

	sheets := []struct {
		name   string
		totals []report.CategoryTotal
		label  func(string) string
	}{
		{PaymentsSheet, sum.PaymentsByCategory, payment.CategoryName},
		{ExpensesSheet, sum.ExpensesByCategory, expense.CategoryName},
	}
	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, errors.Wrapf(err, "creating sheet %q", sheet.name)
		}
		rows := make([][]interface{}, 0, len(sheet.totals)+1)
		rows = append(rows, []interface{}{"Category", "Total", "Count"})
		for _, tot := range sheet.totals {
			rows = append(rows, []interface{}{sheet.label(tot.Category), tot.Total.InexactFloat64(), tot.Count})
		}
		if err := writeRows(f, sheet.name, rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err = f.SetSheetRow(sheet, axis, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return f.SetColWidth(sheet, "A", "A", 20)
}
