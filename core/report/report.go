package report

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/payment"
)

type (
	CategoryTotal struct {
		Category string          `json:"category" db:"category"`
		Total    decimal.Decimal `json:"total" db:"total"`
		Count    int             `json:"count" db:"count"`
	}

	// PaymentTotal is a CategoryTotal of the payments with a given status.
	PaymentTotal struct {
		Status string `db:"status"`
		CategoryTotal
	}

	// Period bounds a report, both ends inclusive. Zero ends are open.
	Period struct {
		From core.Date `json:"from" query:"from"`
		To   core.Date `json:"to" query:"to"`
	}

	// Summary is the financial summary of a school over a Period.
	// TotalCollected and Balance only count completed payments.
	Summary struct {
		Period
		GeneratedAt        time.Time       `json:"generated_at"`
		TotalCollected     decimal.Decimal `json:"total_collected"`
		TotalPending       decimal.Decimal `json:"total_pending"`
		TotalRefunded      decimal.Decimal `json:"total_refunded"`
		TotalExpenses      decimal.Decimal `json:"total_expenses"`
		Balance            decimal.Decimal `json:"balance"`
		PaymentCount       int             `json:"payment_count"`
		ExpenseCount       int             `json:"expense_count"`
		PaymentsByCategory []CategoryTotal `json:"payments_by_category"`
		ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
	}
)

func (p *Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From.Time) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must not be before from"})
	}
	return nil
}

type (
	// Repository aggregates the payments and expenses of a school in the backend.
	Repository interface {
		PaymentTotals(ctx context.Context, schoolID string, period Period) ([]PaymentTotal, error)
		ExpenseTotals(ctx context.Context, schoolID string, period Period) ([]CategoryTotal, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Summary(ctx context.Context, schoolID string, period Period) (Summary, error) {
	if err := period.Validate(); err != nil {
		return Summary{}, err
	}
	pmtTotals, err := svc.repo.PaymentTotals(ctx, schoolID, period)
	if err != nil {
		return Summary{}, errors.Wrap(err, "totalling payments")
	}
	expTotals, err := svc.repo.ExpenseTotals(ctx, schoolID, period)
	if err != nil {
		return Summary{}, errors.Wrap(err, "totalling expenses")
	}

	sum := Summary{
		Period:             period,
		GeneratedAt:        time.Now().UTC(),
		PaymentsByCategory: []CategoryTotal{},
		ExpensesByCategory: []CategoryTotal{},
	}
	for _, pt := range pmtTotals {
		sum.PaymentCount += pt.Count
		switch pt.Status {
		case payment.StatusCompleted:
			sum.TotalCollected = sum.TotalCollected.Add(pt.Total)
			sum.PaymentsByCategory = append(sum.PaymentsByCategory, pt.CategoryTotal)
		case payment.StatusPending:
			sum.TotalPending = sum.TotalPending.Add(pt.Total)
		case payment.StatusRefunded:
			sum.TotalRefunded = sum.TotalRefunded.Add(pt.Total)
		}
	}
	for _, et := range expTotals {
		sum.ExpenseCount += et.Count
		sum.TotalExpenses = sum.TotalExpenses.Add(et.Total)
		sum.ExpensesByCategory = append(sum.ExpensesByCategory, et)
	}
	sum.Balance = sum.TotalCollected.Sub(sum.TotalExpenses)

	sortTotals(sum.PaymentsByCategory)
	sortTotals(sum.ExpensesByCategory)
	return sum, nil
}

func sortTotals(totals []CategoryTotal) {
	sort.Slice(totals, func(i, j int) bool { return totals[i].Category < totals[j].Category })
}
