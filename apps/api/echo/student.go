package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/services/spreadsheet"
)

const importFileField = "file"

type studentApi struct {
	svc        *student.Service
	refs       referenceChecker
	scope      parentScope
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	refs referenceChecker,
	scope parentScope,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	api := studentApi{svc: svc, refs: refs, scope: scope, validate: validate, translator: translator, logger: logger}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, authorize(access.Students, access.Read))
	sg.POST("", api.create, authorize(access.Students, access.Create))
	sg.POST("/import", api.importFile, authorize(access.Students, access.Create))

	// detail endpoints
	obj := objectMiddleware(svc.Get, student.ErrNotFound)
	owned := ownedMiddleware(scope, access.Students, func(s student.Student) string { return s.ParentID.String })
	sg.GET("/:id", api.retrieve, authorize(access.Students, access.Read), obj, owned)
	sg.PUT("/:id", api.update, authorize(access.Students, access.Update), obj)
	sg.DELETE("/:id", api.destroy, authorize(access.Students, access.Delete), obj)
}

func (api *studentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := new(student.QueryFilter)
	if err = bindFilter(ctx, filter, api.validate); err != nil {
		return err
	}
	filter.SchoolID = usr.SchoolID

	if access.ScopedToOwn(usr.Role, access.Students) {
		ownID, ok, err := api.scope.own(ctx.Request().Context(), usr)
		if err != nil {
			return degradeToEmpty[student.Student](ctx, api.logger, err, "students")
		}
		if !ok {
			return ctx.JSON(http.StatusOK, []student.Student{})
		}
		filter.ParentID = ownID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return degradeToEmpty[student.Student](ctx, api.logger, err, "students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) references(s student.NewStudent) []reference {
	return []reference{
		api.refs.class("class_id", s.ClassID.String),
		api.refs.parent("parent_id", s.ParentID.String),
	}
}

func (api *studentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err = api.refs.check(reqCtx, usr.SchoolID, api.references(data)...); err != nil {
		return err
	}

	s, err := api.svc.Create(reqCtx, usr.SchoolID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

// importFile creates the students of an uploaded XLSX file. Invalid rows are skipped and reported.
func (api *studentApi) importFile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fh, err := ctx.FormFile(importFileField)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: importFileField, Error: "this field is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	rows, skipped, err := spreadsheet.ParseStudents(file)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: importFileField, Error: "invalid spreadsheet"})
	}

	reqCtx := ctx.Request().Context()
	resp := ImportResponse{Skipped: skipped}
	for _, row := range rows {
		data := row.Student
		err = data.Validate(api.validate)
		if err == nil {
			err = api.refs.check(reqCtx, usr.SchoolID, api.references(data)...)
		}
		if err == nil {
			_, err = api.svc.Create(reqCtx, usr.SchoolID, data)
		}
		if err != nil {
			msg, ok := api.rowError(err)
			if !ok {
				return errors.Wrapf(err, "importing row %d", row.Row)
			}
			resp.Skipped = append(resp.Skipped, spreadsheet.RowError{Row: row.Row, Error: msg})
			continue
		}
		resp.Imported++
	}
	if resp.Skipped == nil {
		resp.Skipped = []spreadsheet.RowError{}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// rowError renders validation errors as a row message; ok is false for any other error.
func (api *studentApi) rowError(err error) (msg string, ok bool) {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		if len(vErr) > 0 {
			return vErr[0].Field() + ": " + vErr[0].Translate(api.translator), true
		}
	case *core.ValidationError:
		return vErr.Error(), true
	}
	return "", false
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := getContextObject[student.Student](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := getContextObject[student.Student](ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	err = api.refs.check(reqCtx, s.SchoolID,
		api.refs.class("class_id", strOrEmpty(data.ClassID)),
		api.refs.parent("parent_id", strOrEmpty(data.ParentID)),
	)
	if err != nil {
		return err
	}

	s, err = api.svc.Update(reqCtx, s, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, err := getContextObject[student.Student](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), s.SchoolID, s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type ImportResponse struct {
	Imported int                    `json:"imported"`
	Skipped  []spreadsheet.RowError `json:"skipped"`
}
