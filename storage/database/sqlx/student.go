package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/student"
)

const selectStudents = `SELECT id, school_id, first_name, last_name, grade, class_id, parent_id, date_of_birth, is_active, created_at, updated_at FROM student`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student (id, school_id, first_name, last_name, grade, class_id, parent_id, date_of_birth, is_active, created_at, updated_at)
		VALUES (:id, :school_id, :first_name, :last_name, :grade, :class_id, :parent_id, :date_of_birth, :is_active, :created_at, :updated_at)`,
		s,
	)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound)
	}
	return s, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, schoolID, id string) (student.Student, error) {
	var s student.Student
	if err := repo.db.GetContext(ctx, &s, selectStudents+` WHERE school_id = $1 AND id = $2`, schoolID, id); err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound)
	}
	return s, nil
}

func studentsQuery(filter student.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	q.search(filter.Search, "first_name", "last_name")
	if filter.ClassID != "" {
		q.where("class_id = ?", filter.ClassID)
	}
	if filter.ParentID != "" {
		q.where("parent_id = ?", filter.ParentID)
	}
	if filter.Grade != "" {
		q.where("grade = ?", filter.Grade)
	}
	if filter.IsActive != nil {
		q.where("is_active = ?", *filter.IsActive)
	}
	return q.build(selectStudents, ordering...)
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	stmt, args, err := studentsQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	students := make([]student.Student, 0)
	if err = repo.db.SelectContext(ctx, &students, stmt, args...); err != nil {
		return nil, trapErr(err, student.ErrNotFound)
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE student SET first_name = :first_name, last_name = :last_name, grade = :grade, class_id = :class_id,
			parent_id = :parent_id, date_of_birth = :date_of_birth, is_active = :is_active, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`,
		s,
	)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound)
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, "student", schoolID, id, student.ErrNotFound)
}
