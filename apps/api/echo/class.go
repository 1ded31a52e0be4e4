package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/class"
)

type classApi struct {
	svc      *class.Service
	refs     referenceChecker
	validate *validator.Validate
	logger   core.Logger
}

func registerClassAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *class.Service,
	refs referenceChecker,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := classApi{svc: svc, refs: refs, validate: validate, logger: logger}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query, authorize(access.Classes, access.Read))
	cg.POST("", api.create, authorize(access.Classes, access.Create))

	// detail endpoints
	obj := objectMiddleware(svc.Get, class.ErrNotFound)
	cg.GET("/:id", api.retrieve, authorize(access.Classes, access.Read), obj)
	cg.PUT("/:id", api.update, authorize(access.Classes, access.Update), obj)
	cg.DELETE("/:id", api.destroy, authorize(access.Classes, access.Delete), obj)
}

func (api *classApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(class.QueryFilter)
	if err = bindFilter(ctx, filter, api.validate); err != nil {
		return err
	}
	filter.SchoolID = usr.SchoolID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return degradeToEmpty[class.Class](ctx, api.logger, err, "classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data class.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, usr.SchoolID, api.refs.staff("teacher_id", data.TeacherID.String)); err != nil {
		return err
	}

	cls, err := api.svc.Create(reqCtx, usr.SchoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := getContextObject[class.Class](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, err := getContextObject[class.Class](ctx)
	if err != nil {
		return err
	}

	var data class.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, cls.SchoolID, api.refs.staff("teacher_id", strOrEmpty(data.TeacherID))); err != nil {
		return err
	}

	cls, err = api.svc.Update(reqCtx, cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, err := getContextObject[class.Class](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), cls.SchoolID, cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
