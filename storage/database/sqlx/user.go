package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/user"
)

const selectUsers = `SELECT id, school_id, name, email, role, is_active, password_hash, created_at, updated_at, last_login FROM "user"`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	var q query
	q.where("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		q.where("id NOT IN (?)", ids)
	}
	stmt, args, err := q.build(`SELECT COUNT(*) FROM "user"`)
	if err != nil {
		return err
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, stmt, args...); err != nil {
		return trapErr(err, user.ErrNotFound)
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, school_id, name, email, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :school_id, :name, :email, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		usr,
	)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, selectUsers+" WHERE "+cond, arg); err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func usersQuery(filter user.QueryFilter, ordering ...core.DBOrdering) (string, []interface{}, error) {
	var q query
	q.where("school_id = ?", filter.SchoolID)
	q.search(filter.Search, "name", "email")
	if len(filter.Roles) > 0 {
		q.where("role IN (?)", filter.Roles)
	}
	if filter.IsActive != nil {
		q.where("is_active = ?", *filter.IsActive)
	}
	return q.build(selectUsers, ordering...)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	stmt, args, err := usersQuery(filter, ordering...)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	if err = repo.db.SelectContext(ctx, &users, stmt, args...); err != nil {
		return nil, trapErr(err, user.ErrNotFound)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user" SET name = :name, email = :email, role = :role, is_active = :is_active,
			password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		usr,
	)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound)
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, schoolID, id string) error {
	return deleteByID(ctx, repo.db, `"user"`, schoolID, id, user.ErrNotFound)
}
