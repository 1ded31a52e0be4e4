package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/parent"
)

type parentApi struct {
	svc      *parent.Service
	refs     referenceChecker
	validate *validator.Validate
	logger   core.Logger
}

func registerParentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *parent.Service,
	refs referenceChecker,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := parentApi{svc: svc, refs: refs, validate: validate, logger: logger}

	pg := g.Group("/parents", jwt)
	pg.GET("", api.query, authorize(access.Parents, access.Read))
	pg.POST("", api.create, authorize(access.Parents, access.Create))

	obj := objectMiddleware(svc.Get, parent.ErrNotFound)
	pg.GET("/:id", api.retrieve, authorize(access.Parents, access.Read), obj)
	pg.PUT("/:id", api.update, authorize(access.Parents, access.Update), obj)
	pg.DELETE("/:id", api.destroy, authorize(access.Parents, access.Delete), obj)
}

func (api *parentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(parent.QueryFilter)
	if err = bindFilter(ctx, filter, api.validate); err != nil {
		return err
	}
	filter.SchoolID = usr.SchoolID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	parents, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return degradeToEmpty[parent.Parent](ctx, api.logger, err, "parents")
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *parentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data parent.NewParent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, usr.SchoolID, api.refs.parentUser("user_id", data.UserID.String)); err != nil {
		return err
	}

	p, err := api.svc.Create(reqCtx, usr.SchoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating parent")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	p, err := getContextObject[parent.Parent](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) update(ctx echo.Context) error {
	p, err := getContextObject[parent.Parent](ctx)
	if err != nil {
		return err
	}

	var data parent.UpdateParent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, p.SchoolID, api.refs.parentUser("user_id", strOrEmpty(data.UserID))); err != nil {
		return err
	}

	p, err = api.svc.Update(reqCtx, p, data)
	if err != nil {
		return errors.Wrap(err, "updating parent")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) destroy(ctx echo.Context) error {
	p, err := getContextObject[parent.Parent](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p.SchoolID, p.ID); err != nil {
		return errors.Wrap(err, "deleting parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}
