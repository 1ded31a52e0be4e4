package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/expense"
)

type expenseApi struct {
	svc      *expense.Service
	refs     referenceChecker
	validate *validator.Validate
}

func registerExpenseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *expense.Service,
	refs referenceChecker,
	validate *validator.Validate,
) {
	api := expenseApi{svc: svc, refs: refs, validate: validate}

	eg := g.Group("/expenses", jwt)
	eg.GET("/categories", api.queryCategories)
	eg.GET("", api.query, authorize(access.Expenses, access.Read))
	eg.POST("", api.create, authorize(access.Expenses, access.Create))

	obj := objectMiddleware(svc.Get, expense.ErrNotFound)
	eg.GET("/:id", api.retrieve, authorize(access.Expenses, access.Read), obj)
	eg.PUT("/:id", api.update, authorize(access.Expenses, access.Update), obj)
	eg.DELETE("/:id", api.destroy, authorize(access.Expenses, access.Delete), obj)
}

func (api *expenseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(expense.QueryFilter)
	if err = bindFilter(ctx, filter, api.validate); err != nil {
		return err
	}
	filter.SchoolID = usr.SchoolID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	expenses, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying expenses")
	}
	return ctx.JSON(http.StatusOK, expenses)
}

func (api *expenseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data expense.NewExpense
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExpense")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, usr.SchoolID, api.refs.staff("approved_by", data.ApprovedBy.String)); err != nil {
		return err
	}

	e, err := api.svc.Create(reqCtx, usr.SchoolID, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating expense")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *expenseApi) retrieve(ctx echo.Context) error {
	e, err := getContextObject[expense.Expense](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *expenseApi) update(ctx echo.Context) error {
	e, err := getContextObject[expense.Expense](ctx)
	if err != nil {
		return err
	}

	var data expense.UpdateExpense
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExpense")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, e.SchoolID, api.refs.staff("approved_by", strOrEmpty(data.ApprovedBy))); err != nil {
		return err
	}

	e, err = api.svc.Update(reqCtx, e, data)
	if err != nil {
		return errors.Wrap(err, "updating expense")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *expenseApi) destroy(ctx echo.Context) error {
	e, err := getContextObject[expense.Expense](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), e.SchoolID, e.ID); err != nil {
		return errors.Wrap(err, "deleting expense")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *expenseApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, expense.Categories)
}
