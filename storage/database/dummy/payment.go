package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/payment"
)

var paymentComparators = comparators[payment.Payment]{
	"paid_on":    func(a, b payment.Payment) int { return a.PaidOn.Compare(b.PaidOn.Time) },
	"amount":     func(a, b payment.Payment) int { return a.Amount.Cmp(b.Amount) },
	"category":   func(a, b payment.Payment) int { return strings.Compare(a.Category, b.Category) },
	"status":     func(a, b payment.Payment) int { return strings.Compare(a.Status, b.Status) },
	"created_at": func(a, b payment.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type paymentRepository struct {
	tbl scopedTable[payment.Payment]
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{tbl: scopedTable[payment.Payment]{
		db:       db,
		t:        db.payment,
		notFound: payment.ErrNotFound,
		schoolOf: func(p payment.Payment) string { return p.SchoolID },
		idOf:     func(p payment.Payment) string { return p.ID },
		setID:    func(p *payment.Payment, id string) { p.ID = id },
	}}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	return repo.tbl.create(p)
}

func (repo *paymentRepository) GetPayment(_ context.Context, schoolID, id string) (payment.Payment, error) {
	return repo.tbl.get(schoolID, id)
}

// inPeriod reports whether `d` is within [from, to]; zero bounds are open.
func inPeriod(d, from, to core.Date) bool {
	return (from.IsZero() || !d.Before(from.Time)) && (to.IsZero() || !d.After(to.Time))
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter payment.QueryFilter, ordering ...core.DBOrdering) ([]payment.Payment, error) {
	return repo.tbl.query(filter.SchoolID, func(p payment.Payment) bool {
		return (filter.ParentID == "" || p.ParentID == filter.ParentID) &&
			(filter.StudentID == "" || p.StudentID.String == filter.StudentID) &&
			(filter.Category == "" || p.Category == filter.Category) &&
			(filter.Method == "" || p.Method == filter.Method) &&
			(filter.Status == "" || p.Status == filter.Status) &&
			inPeriod(p.PaidOn, filter.PaidFrom, filter.PaidTo)
	}, ordering, paymentComparators)
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	return repo.tbl.update(p)
}

func (repo *paymentRepository) DeletePayment(_ context.Context, schoolID, id string) error {
	return repo.tbl.remove(schoolID, id)
}
