package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
)

type paymentDeps struct {
	svc      *payment.Service
	schools  *school.Service
	parents  *parent.Service
	students *student.Service
	refs     referenceChecker
	scope    parentScope
	validate *validator.Validate
	logger   core.Logger
}

type paymentApi struct {
	paymentDeps
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps paymentDeps) {
	api := paymentApi{deps}

	pg := g.Group("/payments", jwt)
	pg.GET("/categories", api.queryCategories)
	pg.GET("", api.query, authorize(access.Payments, access.Read))
	pg.POST("", api.create, authorize(access.Payments, access.Create))

	obj := objectMiddleware(deps.svc.Get, payment.ErrNotFound)
	owned := ownedMiddleware(deps.scope, access.Payments, func(p payment.Payment) string { return p.ParentID })
	pg.GET("/:id", api.retrieve, authorize(access.Payments, access.Read), obj, owned)
	pg.PUT("/:id", api.update, authorize(access.Payments, access.Update), obj)
	pg.DELETE("/:id", api.destroy, authorize(access.Payments, access.Delete), obj)
}

func (api *paymentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(payment.QueryFilter)
	if err = bindFilter(ctx, filter, api.validate); err != nil {
		return err
	}
	filter.SchoolID = usr.SchoolID

	reqCtx := ctx.Request().Context()
	if access.ScopedToOwn(usr.Role, access.Payments) {
		ownID, ok, err := api.scope.own(reqCtx, usr)
		if err != nil {
			return err
		}
		if !ok {
			return ctx.JSON(http.StatusOK, []payment.Payment{})
		}
		filter.ParentID = ownID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	payments, err := api.svc.Query(reqCtx, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, payments)
}

// studentOf references a student of the school who, when linked to a parent, is a child of `parentID`.
func (api *paymentApi) studentOf(parentID, id string) reference {
	ref := api.refs.student("student_id", id)
	ref.find = func(ctx context.Context, schoolID, id string) error {
		s, err := api.students.Get(ctx, schoolID, id)
		if err != nil {
			return err
		}
		if s.ParentID.Valid && s.ParentID.String != parentID {
			return student.ErrNotFound
		}
		return nil
	}
	return ref
}

func (api *paymentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data payment.NewPayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	err = api.refs.check(reqCtx, usr.SchoolID,
		api.refs.parent("parent_id", data.ParentID),
		api.studentOf(data.ParentID, data.StudentID.String),
	)
	if err != nil {
		return err
	}

	p, err := api.svc.Create(reqCtx, usr.SchoolID, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	api.sendReceipt(reqCtx, p)
	return ctx.JSON(http.StatusCreated, p)
}

// sendReceipt emails the receipt of `p` to its parent. Failing to gather the receipt data is only logged.
func (api *paymentApi) sendReceipt(ctx context.Context, p payment.Payment) {
	if p.Status != payment.StatusCompleted {
		return
	}
	prnt, err := api.parents.Get(ctx, p.SchoolID, p.ParentID)
	if err != nil {
		api.logger.Warn("payment receipt: finding parent", err, map[string]interface{}{"payment_id": p.ID})
		return
	}
	rcpt := payment.Receipt{ParentName: prnt.FullName(), ParentEmail: prnt.Email}
	if sch, err := api.schools.Get(ctx, p.SchoolID); err == nil {
		rcpt.SchoolName = sch.Name
	}
	if p.StudentID.Valid {
		if s, err := api.students.Get(ctx, p.SchoolID, p.StudentID.String); err == nil {
			rcpt.StudentName = s.FullName()
		}
	}
	api.svc.SendReceipt(p, rcpt)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, err := getContextObject[payment.Payment](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) update(ctx echo.Context) error {
	p, err := getContextObject[payment.Payment](ctx)
	if err != nil {
		return err
	}

	var data payment.UpdatePayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, p.SchoolID, api.studentOf(p.ParentID, strOrEmpty(data.StudentID))); err != nil {
		return err
	}

	p, err = api.svc.Update(reqCtx, p, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	p, err := getContextObject[payment.Payment](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p.SchoolID, p.ID); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *paymentApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, payment.Categories)
}
