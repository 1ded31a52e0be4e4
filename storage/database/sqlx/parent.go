package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/parent"
)

const selectParents = `SELECT id, school_id, user_id, first_name, last_name, email, phone, address, created_at, updated_at FROM parent`

type parentRepository struct {
	db *sqlx.DB
}

var _ parent.Repository = (*parentRepository)(nil)

func NewParentRepository(db *sqlx.DB) *parentRepository {
	return &parentRepository{db: db}
}

func (repo *parentRepository) CreateParent(ctx context.Context, p parent.Parent) (parent.Parent, error) {
	p.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO parent (id, school_id, user_id, first_name, last_name, email, phone, address, created_at, updated_at)
		VALUES (:id, :school_id, :user_id, :first_name, :last_name, :email, :phone, :address, :created_at, :updated_at)`,
		p,
	)
	if err != nil {
		return parent.Parent{}, trapErr(err, parent.ErrNotFound)
	}
	return p, nil
}

func (repo *parentRepository) GetParent(ctx context.Context, schoolID, id string) (parent.Parent, error) {
	var p parent.Parent
	if err := repo.db.GetContext(ctx, &p, selectParents+` WHERE school_id = $1 AND id = $2`, schoolID, id); err != nil {
		return parent.Parent{}, trapErr(err, parent.ErrNotFound)
	}
	return p, nil
}

func (repo *parentRepository) GetParentByUserID(ctx context.Context, userID string) (parent.Parent, error) {
	var p parent.Parent
	if err := repo.db.GetContext(ctx, &p, selectParents+` WHERE user_id = $1`, userID); err != nil {
		return parent.Parent{}, trapErr(err, parent.ErrNotFound)
	}
	return p, nil
}

func parentsQuery(filter parent.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	q.search(filter.Search, "first_name", "last_name", "email", "phone")
	return q.build(selectParents, ordering...)
}

func (repo *parentRepository) QueryParents(ctx context.Context, filter parent.QueryFilter, ordering ...core.DBOrdering) ([]parent.Parent, error) {
	stmt, args, err := parentsQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	parents := make([]parent.Parent, 0)
	if err = repo.db.SelectContext(ctx, &parents, stmt, args...); err != nil {
		return nil, trapErr(err, parent.ErrNotFound)
	}
	return parents, nil
}

func (repo *parentRepository) UpdateParent(ctx context.Context, p parent.Parent) (parent.Parent, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE parent SET user_id = :user_id, first_name = :first_name, last_name = :last_name, email = :email,
			phone = :phone, address = :address, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`,
		p,
	)
	if err != nil {
		return parent.Parent{}, trapErr(err, parent.ErrNotFound)
	}
	if err = checkAffected(res, parent.ErrNotFound); err != nil {
		return parent.Parent{}, err
	}
	return p, nil
}

func (repo *parentRepository) DeleteParent(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, "parent", schoolID, id, parent.ErrNotFound)
}
