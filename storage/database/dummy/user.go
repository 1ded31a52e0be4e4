package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/user"
)

var userComparators = comparators[user.User]{
	"name":       func(a, b user.User) int { return strings.Compare(a.Name, b.Name) },
	"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"role":       func(a, b user.User) int { return user.RolePriority(a.Role) - user.RolePriority(b.Role) },
	"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"last_login": func(a, b user.User) int { return a.LastLogin.Time.Compare(b.LastLogin.Time) },
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	if err := repo.db.check(); err != nil {
		return err
	}
	t := repo.db.user
	t.RLock()
	defer t.RUnlock()

	for _, usr := range t.rows {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	if err := repo.db.check(); err != nil {
		return user.User{}, err
	}
	t := repo.db.user
	t.Lock()
	defer t.Unlock()

	for _, other := range t.rows {
		if other.Email == usr.Email {
			return user.User{}, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: "already exists"})
		}
	}
	usr.ID = uuid.New().String()
	t.rows[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	if err := repo.db.check(); err != nil {
		return user.User{}, err
	}
	t := repo.db.user
	t.RLock()
	defer t.RUnlock()

	if usr, ok := t.rows[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	if err := repo.db.check(); err != nil {
		return user.User{}, err
	}
	t := repo.db.user
	t.RLock()
	defer t.RUnlock()

	for _, usr := range t.rows {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	if err := repo.db.check(); err != nil {
		return nil, err
	}
	t := repo.db.user
	t.RLock()
	defer t.RUnlock()

	users := t.all(func(usr user.User) bool {
		return usr.SchoolID == filter.SchoolID &&
			matchesAny(filter.Search, usr.Name, usr.Email) &&
			(len(filter.Roles) == 0 || usr.HasRole(filter.Roles...)) &&
			(filter.IsActive == nil || usr.IsActive == *filter.IsActive)
	})
	sortRows(users, ordering, userComparators)
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	if err := repo.db.check(); err != nil {
		return user.User{}, err
	}
	t := repo.db.user
	t.Lock()
	defer t.Unlock()

	if _, ok := t.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	t.rows[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, schoolID, id string) error {
	if err := repo.db.check(); err != nil {
		return err
	}
	t := repo.db.user
	t.Lock()
	defer t.Unlock()

	if usr, ok := t.rows[id]; !ok || usr.SchoolID != schoolID {
		return user.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}
