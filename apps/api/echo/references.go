package echoapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
)

var invalidRefText = "invalid value"

// reference is a record `id` that the `field` of a payload points to.
type reference struct {
	field    string
	id       string
	notFound error
	find     func(ctx context.Context, schoolID, id string) error
}

// referenceChecker makes sure payloads only point at records of the caller's school.
type referenceChecker struct {
	users    *user.Service
	classes  *class.Service
	parents  *parent.Service
	students *student.Service
}

// check reports every reference whose record cannot be found in the school as a field error.
// Empty IDs are skipped.
func (rc referenceChecker) check(ctx context.Context, schoolID string, refs ...reference) error {
	var flds []core.FieldError
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		if err := ref.find(ctx, schoolID, ref.id); err != nil {
			if errors.Cause(err) != ref.notFound {
				return errors.Wrapf(err, "checking %s", ref.field)
			}
			flds = append(flds, core.FieldError{Field: ref.field, Error: invalidRefText})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (rc referenceChecker) class(field, id string) reference {
	return reference{field: field, id: id, notFound: class.ErrNotFound, find: func(ctx context.Context, schoolID, id string) error {
		_, err := rc.classes.Get(ctx, schoolID, id)
		return err
	}}
}

func (rc referenceChecker) parent(field, id string) reference {
	return reference{field: field, id: id, notFound: parent.ErrNotFound, find: func(ctx context.Context, schoolID, id string) error {
		_, err := rc.parents.Get(ctx, schoolID, id)
		return err
	}}
}

func (rc referenceChecker) student(field, id string) reference {
	return reference{field: field, id: id, notFound: student.ErrNotFound, find: func(ctx context.Context, schoolID, id string) error {
		_, err := rc.students.Get(ctx, schoolID, id)
		return err
	}}
}

// staff references a user of the school who is not a parent.
func (rc referenceChecker) staff(field, id string) reference {
	return rc.member(field, id, func(usr user.User) bool { return !usr.IsParent() })
}

// parentUser references a user of the school with the parent role.
func (rc referenceChecker) parentUser(field, id string) reference {
	return rc.member(field, id, func(usr user.User) bool { return usr.IsParent() })
}

func (rc referenceChecker) member(field, id string, keep func(user.User) bool) reference {
	return reference{field: field, id: id, notFound: user.ErrNotFound, find: func(ctx context.Context, schoolID, id string) error {
		usr, err := rc.users.Get(ctx, schoolID, id)
		if err != nil {
			return err
		}
		if !keep(usr) {
			return user.ErrNotFound
		}
		return nil
	}}
}

// strOrEmpty dereferences optional update fields.
func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
