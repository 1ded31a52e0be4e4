package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/expense"
)

const selectExpenses = `SELECT id, school_id, category, amount, vendor, description, incurred_on, receipt_url, approved_by,
	recorded_by, created_at, updated_at FROM expense`

type expenseRepository struct {
	db *sqlx.DB
}

var _ expense.Repository = (*expenseRepository)(nil)

func NewExpenseRepository(db *sqlx.DB) *expenseRepository {
	return &expenseRepository{db: db}
}

func (repo *expenseRepository) CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO expense (id, school_id, category, amount, vendor, description, incurred_on, receipt_url, approved_by,
			recorded_by, created_at, updated_at)
		VALUES (:id, :school_id, :category, :amount, :vendor, :description, :incurred_on, :receipt_url, :approved_by,
			:recorded_by, :created_at, :updated_at)`,
		e,
	)
	if err != nil {
		return expense.Expense{}, trapErr(err, expense.ErrNotFound)
	}
	return e, nil
}

func (repo *expenseRepository) GetExpense(ctx context.Context, schoolID, id string) (expense.Expense, error) {
	var e expense.Expense
	if err := repo.db.GetContext(ctx, &e, selectExpenses+` WHERE school_id = $1 AND id = $2`, schoolID, id); err != nil {
		return expense.Expense{}, trapErr(err, expense.ErrNotFound)
	}
	return e, nil
}

func expensesQuery(filter expense.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	q.search(filter.Search, "vendor", "description")
	if filter.Category != "" {
		q.where("category = ?", filter.Category)
	}
	if !filter.IncurredFrom.IsZero() {
		q.where("incurred_on >= ?", filter.IncurredFrom)
	}
	if !filter.IncurredTo.IsZero() {
		q.where("incurred_on <= ?", filter.IncurredTo)
	}
	return q.build(selectExpenses, ordering...)
}

func (repo *expenseRepository) QueryExpenses(ctx context.Context, filter expense.QueryFilter, ordering ...core.DBOrdering) ([]expense.Expense, error) {
	stmt, args, err := expensesQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	expenses := make([]expense.Expense, 0)
	if err = repo.db.SelectContext(ctx, &expenses, stmt, args...); err != nil {
		return nil, trapErr(err, expense.ErrNotFound)
	}
	return expenses, nil
}

func (repo *expenseRepository) UpdateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE expense SET category = :category, amount = :amount, vendor = :vendor, description = :description,
			incurred_on = :incurred_on, receipt_url = :receipt_url, approved_by = :approved_by, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`,
		e,
	)
	if err != nil {
		return expense.Expense{}, trapErr(err, expense.ErrNotFound)
	}
	if err = checkAffected(res, expense.ErrNotFound); err != nil {
		return expense.Expense{}, err
	}
	return e, nil
}

func (repo *expenseRepository) DeleteExpense(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, "expense", schoolID, id, expense.ErrNotFound)
}
