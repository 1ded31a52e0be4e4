package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/services/spreadsheet"
	"github.com/trezcool/pta/testutil"
)

// seedReport records a few payments and expenses over the first half of 2024.
func seedReport(t *testing.T, f fixture) {
	t.Helper()
	prnt := testutil.CreateParent(t, repos.Parent, f.school.ID, "Grace", "Hopper", "", "")
	pay := func(amount, cat, status string, d core.Date) {
		testutil.CreatePayment(t, repos.Payment, f.school.ID, prnt.ID, amount, cat, status, d)
	}
	pay("100.50", payment.CategoryDonation, payment.StatusCompleted, core.NewDate(2024, time.January, 10))
	pay("50", payment.CategoryDonation, payment.StatusCompleted, core.NewDate(2024, time.March, 1))
	pay("30", payment.CategoryFieldTrip, payment.StatusCompleted, core.NewDate(2024, time.March, 15))
	pay("20", payment.CategoryFieldTrip, payment.StatusPending, core.NewDate(2024, time.March, 20))
	pay("10", payment.CategoryDonation, payment.StatusRefunded, core.NewDate(2024, time.April, 2))
	pay("999", payment.CategoryDonation, payment.StatusCompleted, core.NewDate(2023, time.December, 31))

	testutil.CreateExpense(t, repos.Expense, f.school.ID, expense.CategorySupplies, "40.25", core.NewDate(2024, time.February, 1))
	testutil.CreateExpense(t, repos.Expense, f.school.ID, expense.CategoryEvents, "60", core.NewDate(2024, time.March, 10))
	testutil.CreateExpense(t, repos.Expense, f.school.ID, expense.CategoryEvents, "500", core.NewDate(2024, time.July, 1))
}

func getSummary(t *testing.T, token, query string) report.Summary {
	t.Helper()
	rec := serve(httpTest{method: http.MethodGet, path: "/api/reports/summary" + query, token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	return sum
}

func Test_reportApi_summary(t *testing.T) {
	f := setup(t)
	seedReport(t, f)
	other := newFixture(t, "Riverside", "riverside.cd")
	theirParent := testutil.CreateParent(t, repos.Parent, other.school.ID, "Al", "Other", "", "")
	testutil.CreatePayment(t, repos.Payment, other.school.ID, theirParent.ID, "1000", payment.CategoryDonation, payment.StatusCompleted, core.NewDate(2024, time.March, 1))

	t.Run("period", func(t *testing.T) {
		sum := getSummary(t, f.token(user.RoleTreasurer), "?from=2024-01-01&to=2024-06-30")

		assert.Equal(t, "2024-01-01", sum.From.String())
		assert.Equal(t, "2024-06-30", sum.To.String())
		assert.Equal(t, "180.5", sum.TotalCollected.String())
		assert.Equal(t, "20", sum.TotalPending.String())
		assert.Equal(t, "10", sum.TotalRefunded.String())
		assert.Equal(t, "100.25", sum.TotalExpenses.String())
		assert.Equal(t, "80.25", sum.Balance.String())
		assert.Equal(t, 5, sum.PaymentCount)
		assert.Equal(t, 2, sum.ExpenseCount)

		require.Len(t, sum.PaymentsByCategory, 2)
		assert.Equal(t, payment.CategoryDonation, sum.PaymentsByCategory[0].Category)
		assert.Equal(t, "150.5", sum.PaymentsByCategory[0].Total.String())
		assert.Equal(t, 2, sum.PaymentsByCategory[0].Count)
		assert.Equal(t, payment.CategoryFieldTrip, sum.PaymentsByCategory[1].Category)
		assert.Equal(t, "30", sum.PaymentsByCategory[1].Total.String())

		require.Len(t, sum.ExpensesByCategory, 2)
		assert.Equal(t, expense.CategoryEvents, sum.ExpensesByCategory[0].Category)
		assert.Equal(t, "60", sum.ExpensesByCategory[0].Total.String())
		assert.Equal(t, expense.CategorySupplies, sum.ExpensesByCategory[1].Category)
	})

	t.Run("open period", func(t *testing.T) {
		sum := getSummary(t, f.token(user.RoleAdmin), "")
		assert.Equal(t, "1179.5", sum.TotalCollected.String())
		assert.Equal(t, "600.25", sum.TotalExpenses.String())
		assert.Equal(t, "579.25", sum.Balance.String())
	})

	t.Run("empty school", func(t *testing.T) {
		empty := newFixture(t, "Hillside", "hillside.cd")
		sum := getSummary(t, empty.token(user.RolePrincipal), "?from=2024-01-01")
		assert.True(t, sum.TotalCollected.IsZero())
		assert.True(t, sum.Balance.IsZero())
		assert.NotNil(t, sum.PaymentsByCategory)
		assert.Empty(t, sum.PaymentsByCategory)
	})

	runTests(t, []httpTest{
		{name: "parent is forbidden", method: http.MethodGet, path: "/api/reports/summary", token: f.token(user.RoleParent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "teacher is forbidden", method: http.MethodGet, path: "/api/reports/summary", token: f.token(user.RoleTeacher), wantCode: http.StatusForbidden},
		{name: "anonymous", method: http.MethodGet, path: "/api/reports/summary", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name:     "malformed date",
			method:   http.MethodGet,
			path:     "/api/reports/summary?from=01/01/2024",
			token:    f.token(user.RoleTreasurer),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"period": "invalid date, expected YYYY-MM-DD"}),
		},
		{
			name:     "reversed period",
			method:   http.MethodGet,
			path:     "/api/reports/summary?from=2024-06-30&to=2024-01-01",
			token:    f.token(user.RoleTreasurer),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"to": "must not be before from"}),
		},
	})

	t.Run("backend down", func(t *testing.T) {
		dataDB.SetUnavailable(true)
		defer dataDB.SetUnavailable(false)

		rec := serve(httpTest{method: http.MethodGet, path: "/api/reports/summary", token: f.token(user.RoleTreasurer)})
		checkCodeAndData(t, httpTest{wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, errUnavailable)}, rec)
	})
}

func Test_reportApi_export(t *testing.T) {
	f := setup(t)
	seedReport(t, f)

	t.Run("parent is forbidden", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/api/reports/summary/export", token: f.token(user.RoleParent)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("workbook", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/api/reports/summary/export?from=2024-01-01&to=2024-06-30", token: f.token(user.RolePrincipal)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, spreadsheet.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="summary_2024-01-01_2024-06-30.xlsx"`, rec.Header().Get("Content-Disposition"))

		xl, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer xl.Close()

		rows, err := xl.GetRows(spreadsheet.SummarySheet)
		require.NoError(t, err)
		assert.Equal(t, []string{"Total collected", "180.5"}, rows[4])
		assert.Equal(t, []string{"Balance", "80.25"}, rows[8])

		rows, err = xl.GetRows(spreadsheet.PaymentsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"Donation", "150.5", "2"}, rows[1])
		assert.Equal(t, []string{"Field trip", "30", "1"}, rows[2])
	})

	t.Run("open period filename", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/api/reports/summary/export", token: f.token(user.RoleTreasurer)})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="summary.xlsx"`, rec.Header().Get("Content-Disposition"))
	})
}
