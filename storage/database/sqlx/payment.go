package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/payment"
)

const selectPayments = `SELECT id, school_id, parent_id, student_id, amount, category, method, status, reference, notes,
	paid_on, recorded_by, created_at, updated_at FROM payment`

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO payment (id, school_id, parent_id, student_id, amount, category, method, status, reference, notes,
			paid_on, recorded_by, created_at, updated_at)
		VALUES (:id, :school_id, :parent_id, :student_id, :amount, :category, :method, :status, :reference, :notes,
			:paid_on, :recorded_by, :created_at, :updated_at)`,
		p,
	)
	if err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound)
	}
	return p, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, schoolID, id string) (payment.Payment, error) {
	var p payment.Payment
	if err := repo.db.GetContext(ctx, &p, selectPayments+` WHERE school_id = $1 AND id = $2`, schoolID, id); err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound)
	}
	return p, nil
}

func paymentsQuery(filter payment.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	if filter.ParentID != "" {
		q.where("parent_id = ?", filter.ParentID)
	}
	if filter.StudentID != "" {
		q.where("student_id = ?", filter.StudentID)
	}
	if filter.Category != "" {
		q.where("category = ?", filter.Category)
	}
	if filter.Method != "" {
		q.where("method = ?", filter.Method)
	}
	if filter.Status != "" {
		q.where("status = ?", filter.Status)
	}
	if !filter.PaidFrom.IsZero() {
		q.where("paid_on >= ?", filter.PaidFrom)
	}
	if !filter.PaidTo.IsZero() {
		q.where("paid_on <= ?", filter.PaidTo)
	}
	return q.build(selectPayments, ordering...)
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, filter payment.QueryFilter, ordering ...core.DBOrdering) ([]payment.Payment, error) {
	stmt, args, err := paymentsQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	payments := make([]payment.Payment, 0)
	if err = repo.db.SelectContext(ctx, &payments, stmt, args...); err != nil {
		return nil, trapErr(err, payment.ErrNotFound)
	}
	return payments, nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE payment SET parent_id = :parent_id, student_id = :student_id, amount = :amount, category = :category,
			method = :method, status = :status, reference = :reference, notes = :notes, paid_on = :paid_on,
			updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`,
		p,
	)
	if err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound)
	}
	if err = checkAffected(res, payment.ErrNotFound); err != nil {
		return payment.Payment{}, err
	}
	return p, nil
}

func (repo *paymentRepository) DeletePayment(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, "payment", schoolID, id, payment.ErrNotFound)
}
