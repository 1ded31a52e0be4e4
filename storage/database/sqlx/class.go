package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
)

const selectClasses = `SELECT id, school_id, name, grade, academic_year, room, teacher_id, created_at, updated_at FROM class`

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class (id, school_id, name, grade, academic_year, room, teacher_id, created_at, updated_at)
		VALUES (:id, :school_id, :name, :grade, :academic_year, :room, :teacher_id, :created_at, :updated_at)`,
		cls,
	)
	if err != nil {
		return class.Class{}, trapErr(err, class.ErrNotFound)
	}
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, schoolID, id string) (class.Class, error) {
	var cls class.Class
	if err := repo.db.GetContext(ctx, &cls, selectClasses+` WHERE school_id = $1 AND id = $2`, schoolID, id); err != nil {
		return class.Class{}, trapErr(err, class.ErrNotFound)
	}
	return cls, nil
}

func classesQuery(filter class.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	q.search(filter.Search, "name", "room")
	if filter.Grade != "" {
		q.where("grade = ?", filter.Grade)
	}
	if filter.TeacherID != "" {
		q.where("teacher_id = ?", filter.TeacherID)
	}
	if filter.AcademicYear != "" {
		q.where("academic_year = ?", filter.AcademicYear)
	}
	return q.build(selectClasses, ordering...)
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter, ordering ...core.DBOrdering) ([]class.Class, error) {
	stmt, args, err := classesQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	classes := make([]class.Class, 0)
	if err = repo.db.SelectContext(ctx, &classes, stmt, args...); err != nil {
		return nil, trapErr(err, class.ErrNotFound)
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE class SET name = :name, grade = :grade, academic_year = :academic_year, room = :room,
			teacher_id = :teacher_id, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`,
		cls,
	)
	if err != nil {
		return class.Class{}, trapErr(err, class.ErrNotFound)
	}
	if err = checkAffected(res, class.ErrNotFound); err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, "class", schoolID, id, class.ErrNotFound)
}
