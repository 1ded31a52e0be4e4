package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/parent"
)

var parentComparators = comparators[parent.Parent]{
	"first_name": func(a, b parent.Parent) int { return strings.Compare(a.FirstName, b.FirstName) },
	"last_name":  func(a, b parent.Parent) int { return strings.Compare(a.LastName, b.LastName) },
	"email":      func(a, b parent.Parent) int { return strings.Compare(a.Email, b.Email) },
	"created_at": func(a, b parent.Parent) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type parentRepository struct {
	tbl scopedTable[parent.Parent]
}

var _ parent.Repository = (*parentRepository)(nil) // interface compliance check

func NewParentRepository(db *DB) *parentRepository {
	return &parentRepository{tbl: scopedTable[parent.Parent]{
		db:       db,
		t:        db.parent,
		notFound: parent.ErrNotFound,
		schoolOf: func(p parent.Parent) string { return p.SchoolID },
		idOf:     func(p parent.Parent) string { return p.ID },
		setID:    func(p *parent.Parent, id string) { p.ID = id },
	}}
}

// checkUserLink mimics the unique index on parent.user_id.
func (repo *parentRepository) checkUserLink(p parent.Parent) error {
	if !p.UserID.Valid {
		return nil
	}
	other, err := repo.tbl.find(func(o parent.Parent) bool { return o.UserID == p.UserID && o.ID != p.ID })
	if err == nil && other.ID != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: "already exists"})
	}
	if err != nil && err != parent.ErrNotFound {
		return err
	}
	return nil
}

func (repo *parentRepository) CreateParent(_ context.Context, p parent.Parent) (parent.Parent, error) {
	if err := repo.checkUserLink(p); err != nil {
		return parent.Parent{}, err
	}
	return repo.tbl.create(p)
}

func (repo *parentRepository) GetParent(_ context.Context, schoolID, id string) (parent.Parent, error) {
	return repo.tbl.get(schoolID, id)
}

func (repo *parentRepository) GetParentByUserID(_ context.Context, userID string) (parent.Parent, error) {
	return repo.tbl.find(func(p parent.Parent) bool { return p.UserID.Valid && p.UserID.String == userID })
}

func (repo *parentRepository) QueryParents(_ context.Context, filter parent.QueryFilter, ordering ...core.DBOrdering) ([]parent.Parent, error) {
	return repo.tbl.query(filter.SchoolID, func(p parent.Parent) bool {
		return matchesAny(filter.Search, p.FirstName, p.LastName, p.Email, p.Phone)
	}, ordering, parentComparators)
}

func (repo *parentRepository) UpdateParent(_ context.Context, p parent.Parent) (parent.Parent, error) {
	if err := repo.checkUserLink(p); err != nil {
		return parent.Parent{}, err
	}
	return repo.tbl.update(p)
}

func (repo *parentRepository) DeleteParent(_ context.Context, schoolID, id string) error {
	return repo.tbl.remove(schoolID, id)
}
