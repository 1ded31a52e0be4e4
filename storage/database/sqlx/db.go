package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/storage/database"
)

// PostgreSQL error codes / classes
const (
	pqClassConnection     = "08"
	pqClassOperatorAction = "57"
	pqQueryCanceled       = "57014"
	pqInvalidText         = "22P02"
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// query accumulates AND-ed WHERE conditions written with `?` bind vars.
type query struct {
	conds []string
	args  []interface{}
}

func NewRepositories(db *sqlx.DB) database.Repositories {
	return database.Repositories{
		School:  NewSchoolRepository(db),
		User:    NewUserRepository(db),
		Class:   NewClassRepository(db),
		Parent:  NewParentRepository(db),
		Student: NewStudentRepository(db),
		Payment: NewPaymentRepository(db),
		Expense: NewExpenseRepository(db),
		Report:  NewReportRepository(db),
	}
}

func (q *query) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

// search adds a case-insensitive "contains" match on any of `cols`.
func (q *query) search(term string, cols ...string) {
	if term == "" {
		return
	}
	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, col+" ILIKE ?")
		q.args = append(q.args, pattern)
	}
	q.conds = append(q.conds, "("+strings.Join(parts, " OR ")+")")
}

// build renders `base` + WHERE + ORDER BY with expanded IN lists and $N bind vars.
func (q *query) build(base string, ordering ...core.DBOrdering) (string, []interface{}, error) {
	stmt := base
	if len(q.conds) > 0 {
		stmt += " WHERE " + strings.Join(q.conds, " AND ")
	}
	stmt += core.OrderByClause(ordering)

	stmt, args, err := sqlx.In(stmt, q.args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query")
	}
	return sqlx.Rebind(sqlx.DOLLAR, stmt), args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// trapErr translates driver errors into domain errors. `notFound` is returned for missing rows.
func trapErr(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if isUnavailable(err) {
		return core.NewUnavailableError(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqInvalidText: // malformed uuid
			return notFound
		case pqForeignKeyViolation:
			return core.NewValidationError(err, core.FieldError{Field: referenceField(pqErr), Error: "invalid value"})
		case pqUniqueViolation:
			return core.NewValidationError(err, core.FieldError{Field: referenceField(pqErr), Error: "already exists"})
		}
	}
	return err
}

// referenceField guesses the offending column from a constraint name like "student_class_id_fkey".
func referenceField(pqErr *pq.Error) string {
	if pqErr.Column != "" {
		return pqErr.Column
	}
	name := strings.TrimPrefix(pqErr.Constraint, pqErr.Table+"_")
	for _, suffix := range []string{"_fkey", "_key"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if name == "" {
		return "error"
	}
	return name
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		return class == pqClassConnection || (class == pqClassOperatorAction && pqErr.Code != pqQueryCanceled)
	}
	return false
}

// checkAffected returns `notFound` when `res` did not touch any row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return trapErr(err, notFound)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// deleteByID deletes the row of the given school from `table`.
func deleteByID(ctx context.Context, db *sqlx.DB, table, schoolID, id string, notFound error) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return trapErr(err, notFound)
	}
	return checkAffected(res, notFound)
}
