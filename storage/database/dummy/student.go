package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/student"
)

var studentComparators = comparators[student.Student]{
	"first_name":    func(a, b student.Student) int { return strings.Compare(a.FirstName, b.FirstName) },
	"last_name":     func(a, b student.Student) int { return strings.Compare(a.LastName, b.LastName) },
	"grade":         func(a, b student.Student) int { return strings.Compare(a.Grade, b.Grade) },
	"date_of_birth": func(a, b student.Student) int { return a.DateOfBirth.Compare(b.DateOfBirth.Time) },
	"created_at":    func(a, b student.Student) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type studentRepository struct {
	tbl scopedTable[student.Student]
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{tbl: scopedTable[student.Student]{
		db:       db,
		t:        db.student,
		notFound: student.ErrNotFound,
		schoolOf: func(s student.Student) string { return s.SchoolID },
		idOf:     func(s student.Student) string { return s.ID },
		setID:    func(s *student.Student, id string) { s.ID = id },
	}}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	return repo.tbl.create(s)
}

func (repo *studentRepository) GetStudent(_ context.Context, schoolID, id string) (student.Student, error) {
	return repo.tbl.get(schoolID, id)
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error) {
	return repo.tbl.query(filter.SchoolID, func(s student.Student) bool {
		return matchesAny(filter.Search, s.FirstName, s.LastName) &&
			(filter.ClassID == "" || s.ClassID.String == filter.ClassID) &&
			(filter.ParentID == "" || s.ParentID.String == filter.ParentID) &&
			(filter.Grade == "" || s.Grade == filter.Grade) &&
			(filter.IsActive == nil || s.IsActive == *filter.IsActive)
	}, ordering, studentComparators)
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	return repo.tbl.update(s)
}

func (repo *studentRepository) DeleteStudent(_ context.Context, schoolID, id string) error {
	return repo.tbl.remove(schoolID, id)
}
