package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/pta/core"
)

var (
	orderingParam    = "ordering"
	filtersField     = "filters"
	errInvalidFilter = "invalid filter value"
)

type queryFilter interface {
	Clean()
}

// bindFilter reads the query params of a list request into filter, then cleans and validates it.
func bindFilter(ctx echo.Context, filter queryFilter, validate *validator.Validate) error {
	if err := ctx.Bind(filter); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: filtersField, Error: errInvalidFilter})
	}
	filter.Clean()
	return validate.Struct(filter)
}

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param: "?ordering=name,-created_at".
func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrderings(val)
	}
}
