package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO school (id, name, address, phone, email, created_at, updated_at)
		VALUES (:id, :name, :address, :phone, :email, :created_at, :updated_at)`,
		sch,
	)
	if err != nil {
		return school.School{}, trapErr(err, school.ErrNotFound)
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var sch school.School
	err := repo.db.GetContext(ctx, &sch, `SELECT id, name, address, phone, email, created_at, updated_at FROM school WHERE id = $1`, id)
	if err != nil {
		return school.School{}, trapErr(err, school.ErrNotFound)
	}
	return sch, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE school SET name = :name, address = :address, phone = :phone, email = :email, updated_at = :updated_at
		WHERE id = :id`,
		sch,
	)
	if err != nil {
		return school.School{}, trapErr(err, school.ErrNotFound)
	}
	if err = checkAffected(res, school.ErrNotFound); err != nil {
		return school.School{}, err
	}
	return sch, nil
}
