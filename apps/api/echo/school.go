package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/school"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}

	sg := g.Group("/schools/current", jwt, api.currentSchoolMiddleware)
	sg.GET("", api.retrieve, authorize(access.Schools, access.Read))
	sg.PUT("", api.update, authorize(access.Schools, access.Update))
}

func (api *schoolApi) currentSchoolMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		sch, err := api.svc.Get(ctx.Request().Context(), usr.SchoolID)
		if err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding school by ID")
		}
		ctx.Set(contextObjectKey, sch)
		return next(ctx)
	}
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, err := getContextObject[school.School](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	sch, err := getContextObject[school.School](ctx)
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err = data.Validate(sch, api.validate); err != nil {
		return err
	}

	sch, err = api.svc.Update(ctx.Request().Context(), sch, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}
