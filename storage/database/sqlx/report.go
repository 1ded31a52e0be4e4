package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core/report"
)

var errNoRows = errors.New("no rows")

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func periodQuery(schoolID string, period report.Period, dateCol string) query {
	var q query
	q.where("school_id = ?", schoolID)
	if !period.From.IsZero() {
		q.where(dateCol+" >= ?", period.From)
	}
	if !period.To.IsZero() {
		q.where(dateCol+" <= ?", period.To)
	}
	return q
}

func (repo *reportRepository) PaymentTotals(ctx context.Context, schoolID string, period report.Period) ([]report.PaymentTotal, error) {
	q := periodQuery(schoolID, period, "paid_on")
	stmt, args, err := q.build(`SELECT status, category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count FROM payment`)
	if err != nil {
		return nil, err
	}
	totals := make([]report.PaymentTotal, 0)
	if err = repo.db.SelectContext(ctx, &totals, stmt+" GROUP BY status, category", args...); err != nil {
		return nil, trapErr(err, errNoRows)
	}
	return totals, nil
}

func (repo *reportRepository) ExpenseTotals(ctx context.Context, schoolID string, period report.Period) ([]report.CategoryTotal, error) {
	q := periodQuery(schoolID, period, "incurred_on")
	stmt, args, err := q.build(`SELECT category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count FROM expense`)
	if err != nil {
		return nil, err
	}
	totals := make([]report.CategoryTotal, 0)
	if err = repo.db.SelectContext(ctx, &totals, stmt+" GROUP BY category", args...); err != nil {
		return nil, trapErr(err, errNoRows)
	}
	return totals, nil
}
