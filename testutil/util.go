// Package testutil creates the records tests start from.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
)

func nullStr(s string) null.String {
	return null.NewString(s, s != "")
}

func stamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}

func CreateSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()
	now := time.Now().UTC()
	sch, err := repo.CreateSchool(context.Background(), school.School{Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	schoolID, name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := stamp(createdAt)
	usr := user.User{
		SchoolID:  schoolID,
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo class.Repository, schoolID, name, grade, teacherID string) class.Class {
	t.Helper()
	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		SchoolID:  schoolID,
		Name:      name,
		Grade:     grade,
		TeacherID: nullStr(teacherID),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateParent(t *testing.T, repo parent.Repository, schoolID, firstName, lastName, email, userID string) parent.Parent {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreateParent(context.Background(), parent.Parent{
		SchoolID:  schoolID,
		UserID:    nullStr(userID),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}
	return p
}

func CreateStudent(t *testing.T, repo student.Repository, schoolID, firstName, lastName, classID, parentID string) student.Student {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateStudent(context.Background(), student.Student{
		SchoolID:  schoolID,
		FirstName: firstName,
		LastName:  lastName,
		ClassID:   nullStr(classID),
		ParentID:  nullStr(parentID),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreatePayment(
	t *testing.T,
	repo payment.Repository,
	schoolID, parentID, amount, category, status string,
	paidOn core.Date,
) payment.Payment {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePayment(context.Background(), payment.Payment{
		SchoolID:  schoolID,
		ParentID:  parentID,
		Amount:    decimal.RequireFromString(amount),
		Category:  category,
		Method:    payment.MethodCash,
		Status:    status,
		PaidOn:    paidOn,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

func CreateExpense(t *testing.T, repo expense.Repository, schoolID, category, amount string, incurredOn core.Date) expense.Expense {
	t.Helper()
	now := time.Now().UTC()
	e, err := repo.CreateExpense(context.Background(), expense.Expense{
		SchoolID:    schoolID,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Description: category,
		IncurredOn:  incurredOn,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateExpense() failed: %v", err)
	}
	return e
}
