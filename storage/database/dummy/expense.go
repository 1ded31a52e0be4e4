package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/expense"
)

var expenseComparators = comparators[expense.Expense]{
	"incurred_on": func(a, b expense.Expense) int { return a.IncurredOn.Compare(b.IncurredOn.Time) },
	"amount":      func(a, b expense.Expense) int { return a.Amount.Cmp(b.Amount) },
	"category":    func(a, b expense.Expense) int { return strings.Compare(a.Category, b.Category) },
	"vendor":      func(a, b expense.Expense) int { return strings.Compare(a.Vendor, b.Vendor) },
	"created_at":  func(a, b expense.Expense) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type expenseRepository struct {
	tbl scopedTable[expense.Expense]
}

var _ expense.Repository = (*expenseRepository)(nil) // interface compliance check

func NewExpenseRepository(db *DB) *expenseRepository {
	return &expenseRepository{tbl: scopedTable[expense.Expense]{
		db:       db,
		t:        db.expense,
		notFound: expense.ErrNotFound,
		schoolOf: func(e expense.Expense) string { return e.SchoolID },
		idOf:     func(e expense.Expense) string { return e.ID },
		setID:    func(e *expense.Expense, id string) { e.ID = id },
	}}
}

func (repo *expenseRepository) CreateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	return repo.tbl.create(e)
}

func (repo *expenseRepository) GetExpense(_ context.Context, schoolID, id string) (expense.Expense, error) {
	return repo.tbl.get(schoolID, id)
}

func (repo *expenseRepository) QueryExpenses(_ context.Context, filter expense.QueryFilter, ordering ...core.DBOrdering) ([]expense.Expense, error) {
	return repo.tbl.query(filter.SchoolID, func(e expense.Expense) bool {
		return matchesAny(filter.Search, e.Vendor, e.Description) &&
			(filter.Category == "" || e.Category == filter.Category) &&
			inPeriod(e.IncurredOn, filter.IncurredFrom, filter.IncurredTo)
	}, ordering, expenseComparators)
}

func (repo *expenseRepository) UpdateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	return repo.tbl.update(e)
}

func (repo *expenseRepository) DeleteExpense(_ context.Context, schoolID, id string) error {
	return repo.tbl.remove(schoolID, id)
}
