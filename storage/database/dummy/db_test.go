package dummydb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/student"
)

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	db, err := Open()
	require.NoError(t, err)
	repo := NewStudentRepository(db)

	mk := func(schoolID, first, last, parentID string) student.Student {
		s, err := repo.CreateStudent(ctx, student.Student{
			SchoolID:  schoolID,
			FirstName: first,
			LastName:  last,
			ParentID:  null.NewString(parentID, parentID != ""),
			IsActive:  true,
		})
		require.NoError(t, err)
		return s
	}
	zoe := mk("sch1", "Zoe", "Adams", "par1")
	bob := mk("sch1", "Bob", "Zulu", "")
	mk("sch2", "Ann", "Other", "par1")

	t.Run("scoped to school and ordered", func(t *testing.T) {
		got, err := repo.QueryStudents(ctx, student.QueryFilter{SchoolID: "sch1"}, core.DBOrdering{Field: "first_name", Ascending: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, bob.ID, got[0].ID)
		assert.Equal(t, zoe.ID, got[1].ID)
	})

	t.Run("parent filter", func(t *testing.T) {
		got, err := repo.QueryStudents(ctx, student.QueryFilter{SchoolID: "sch1", ParentID: "par1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, zoe.ID, got[0].ID)
	})

	t.Run("search", func(t *testing.T) {
		got, err := repo.QueryStudents(ctx, student.QueryFilter{SchoolID: "sch1", Search: "zul"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, bob.ID, got[0].ID)
	})

	t.Run("other school is not found", func(t *testing.T) {
		_, err := repo.GetStudent(ctx, "sch2", zoe.ID)
		assert.Equal(t, student.ErrNotFound, err)
		assert.Equal(t, student.ErrNotFound, repo.DeleteStudent(ctx, "sch2", zoe.ID))

		moved := zoe
		moved.SchoolID = "sch2"
		_, err = repo.UpdateStudent(ctx, moved)
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("unavailable", func(t *testing.T) {
		db.SetUnavailable(true)
		defer db.SetUnavailable(false)

		_, err := repo.QueryStudents(ctx, student.QueryFilter{SchoolID: "sch1"})
		assert.True(t, core.IsUnavailable(err))
	})
}

func TestParentRepository_UniqueUser(t *testing.T) {
	ctx := context.Background()
	db, _ := Open()
	repo := NewParentRepository(db)

	par, err := repo.CreateParent(ctx, parent.Parent{SchoolID: "sch", UserID: null.StringFrom("usr"), FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = repo.CreateParent(ctx, parent.Parent{SchoolID: "sch", UserID: null.StringFrom("usr"), FirstName: "C", LastName: "D"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "user_id", vErr.Fields[0].Field)

	got, err := repo.GetParentByUserID(ctx, "usr")
	require.NoError(t, err)
	assert.Equal(t, par.ID, got.ID)

	// updating the linked parent itself is fine
	par.Phone = "555"
	_, err = repo.UpdateParent(ctx, par)
	assert.NoError(t, err)
}

func TestReportRepository_PaymentTotals(t *testing.T) {
	ctx := context.Background()
	db, _ := Open()
	payments := NewPaymentRepository(db)
	reports := NewReportRepository(db)

	add := func(status, cat, amount string, day int) {
		_, err := payments.CreatePayment(ctx, payment.Payment{
			SchoolID: "sch",
			ParentID: "par",
			Amount:   decimal.RequireFromString(amount),
			Category: cat,
			Status:   status,
			PaidOn:   core.NewDate(2021, time.March, day),
		})
		require.NoError(t, err)
	}
	add(payment.StatusCompleted, payment.CategoryDonation, "10.50", 1)
	add(payment.StatusCompleted, payment.CategoryDonation, "4.50", 2)
	add(payment.StatusPending, payment.CategoryDonation, "7", 3)
	add(payment.StatusCompleted, payment.CategoryDonation, "100", 20) // out of period

	totals, err := reports.PaymentTotals(ctx, "sch", report.Period{To: core.NewDate(2021, time.March, 10)})
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byStatus := make(map[string]report.PaymentTotal)
	for _, tot := range totals {
		byStatus[tot.Status] = tot
	}
	assert.True(t, decimal.RequireFromString("15").Equal(byStatus[payment.StatusCompleted].Total))
	assert.Equal(t, 2, byStatus[payment.StatusCompleted].Count)
	assert.Equal(t, 1, byStatus[payment.StatusPending].Count)
}
