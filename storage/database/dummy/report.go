package dummydb

import (
	"context"

	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

// PaymentTotals sums payments per (status, category), like a GROUP BY would.
func (repo *reportRepository) PaymentTotals(_ context.Context, schoolID string, period report.Period) ([]report.PaymentTotal, error) {
	if err := repo.db.check(); err != nil {
		return nil, err
	}
	t := repo.db.payment
	t.RLock()
	defer t.RUnlock()

	type key struct{ status, category string }
	idx := make(map[key]int)
	totals := make([]report.PaymentTotal, 0)
	for _, p := range t.all(func(p payment.Payment) bool {
		return p.SchoolID == schoolID && inPeriod(p.PaidOn, period.From, period.To)
	}) {
		k := key{p.Status, p.Category}
		i, ok := idx[k]
		if !ok {
			i = len(totals)
			idx[k] = i
			totals = append(totals, report.PaymentTotal{Status: p.Status, CategoryTotal: report.CategoryTotal{Category: p.Category}})
		}
		totals[i].Total = totals[i].Total.Add(p.Amount)
		totals[i].Count++
	}
	return totals, nil
}

func (repo *reportRepository) ExpenseTotals(_ context.Context, schoolID string, period report.Period) ([]report.CategoryTotal, error) {
	if err := repo.db.check(); err != nil {
		return nil, err
	}
	t := repo.db.expense
	t.RLock()
	defer t.RUnlock()

	idx := make(map[string]int)
	totals := make([]report.CategoryTotal, 0)
	for _, e := range t.all(func(e expense.Expense) bool {
		return e.SchoolID == schoolID && inPeriod(e.IncurredOn, period.From, period.To)
	}) {
		i, ok := idx[e.Category]
		if !ok {
			i = len(totals)
			idx[e.Category] = i
			totals = append(totals, report.CategoryTotal{Category: e.Category})
		}
		totals[i].Total = totals[i].Total.Add(e.Amount)
		totals[i].Count++
	}
	return totals, nil
}
