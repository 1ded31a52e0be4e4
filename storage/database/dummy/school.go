package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/pta/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	if err := repo.db.check(); err != nil {
		return school.School{}, err
	}
	t := repo.db.school
	t.Lock()
	defer t.Unlock()

	sch.ID = uuid.New().String()
	t.rows[sch.ID] = sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	if err := repo.db.check(); err != nil {
		return school.School{}, err
	}
	t := repo.db.school
	t.RLock()
	defer t.RUnlock()

	if sch, ok := t.rows[id]; ok {
		return sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	if err := repo.db.check(); err != nil {
		return school.School{}, err
	}
	t := repo.db.school
	t.Lock()
	defer t.Unlock()

	if _, ok := t.rows[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	t.rows[sch.ID] = sch
	return sch, nil
}
