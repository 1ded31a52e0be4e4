package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
)

var classComparators = comparators[class.Class]{
	"name":          func(a, b class.Class) int { return strings.Compare(a.Name, b.Name) },
	"grade":         func(a, b class.Class) int { return strings.Compare(a.Grade, b.Grade) },
	"academic_year": func(a, b class.Class) int { return strings.Compare(a.AcademicYear, b.AcademicYear) },
	"room":          func(a, b class.Class) int { return strings.Compare(a.Room, b.Room) },
	"created_at":    func(a, b class.Class) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type classRepository struct {
	tbl scopedTable[class.Class]
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{tbl: scopedTable[class.Class]{
		db:       db,
		t:        db.class,
		notFound: class.ErrNotFound,
		schoolOf: func(c class.Class) string { return c.SchoolID },
		idOf:     func(c class.Class) string { return c.ID },
		setID:    func(c *class.Class, id string) { c.ID = id },
	}}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	return repo.tbl.create(cls)
}

func (repo *classRepository) GetClass(_ context.Context, schoolID, id string) (class.Class, error) {
	return repo.tbl.get(schoolID, id)
}

func (repo *classRepository) QueryClasses(_ context.Context, filter class.QueryFilter, ordering ...core.DBOrdering) ([]class.Class, error) {
	return repo.tbl.query(filter.SchoolID, func(c class.Class) bool {
		return matchesAny(filter.Search, c.Name, c.Room) &&
			(filter.Grade == "" || c.Grade == filter.Grade) &&
			(filter.TeacherID == "" || c.TeacherID.String == filter.TeacherID) &&
			(filter.AcademicYear == "" || c.AcademicYear == filter.AcademicYear)
	}, ordering, classComparators)
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	return repo.tbl.update(cls)
}

func (repo *classRepository) DeleteClass(_ context.Context, schoolID, id string) error {
	return repo.tbl.remove(schoolID, id)
}
