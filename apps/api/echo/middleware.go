package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/user"
)

const contextObjectKey = "object"

// authorize lets the request through when the caller's role may perform `act` on `res`.
func authorize(res access.Resource, act access.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if access.Allowed(usr.Role, res, act) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// objectMiddleware loads the `:id` record of the caller's school into the context.
// Records of other schools are reported as not found.
func objectMiddleware[T any](get func(ctx context.Context, schoolID, id string) (T, error), notFound error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			obj, err := get(ctx.Request().Context(), usr.SchoolID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == notFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding object by ID")
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func getContextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}

// parentScope narrows what parents see to the records of their own children.
type parentScope struct {
	svc *parent.Service
}

// own returns the ID of the Parent record linked to `usr`; ok is false when there is none.
func (ps parentScope) own(ctx context.Context, usr user.User) (id string, ok bool, err error) {
	p, err := ps.svc.GetByUserID(ctx, usr.ID)
	if err != nil {
		if errors.Cause(err) == parent.ErrNotFound {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "finding parent by user ID")
	}
	if p.SchoolID != usr.SchoolID {
		return "", false, nil
	}
	return p.ID, true, nil
}

// ownedMiddleware hides the context object from parents when it is not one of their own.
func ownedMiddleware[T any](ps parentScope, res access.Resource, parentOf func(T) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !access.ScopedToOwn(usr.Role, res) {
				return next(ctx)
			}

			obj, err := getContextObject[T](ctx)
			if err != nil {
				return err
			}
			ownID, ok, err := ps.own(ctx.Request().Context(), usr)
			if err != nil {
				return err
			}
			if !ok || parentOf(obj) != ownID {
				return errHttpNotFound
			}
			return next(ctx)
		}
	}
}

// degradeToEmpty answers an empty list when the backend cannot be reached.
// Any other error is returned as is.
func degradeToEmpty[T any](ctx echo.Context, logger core.Logger, err error, what string) error {
	if !core.IsUnavailable(err) {
		return errors.Wrap(err, "querying "+what)
	}
	usr, _ := getContextUser(ctx)
	logger.Warn("backend unavailable, listing no "+what, err, usr)
	return ctx.JSON(http.StatusOK, []T{})
}
