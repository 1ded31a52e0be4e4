package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/access"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/services/spreadsheet"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.GET("/summary", api.summary, authorize(access.Reports, access.Read))
	rg.GET("/summary/export", api.export, authorize(access.Reports, access.Export))
}

func (api *reportApi) getSummary(ctx echo.Context) (report.Summary, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return report.Summary{}, errors.Wrap(err, "getting context user")
	}
	var period report.Period
	if err = ctx.Bind(&period); err != nil {
		return report.Summary{}, core.NewValidationError(err, core.FieldError{
			Field: "period",
			Error: "invalid date, expected YYYY-MM-DD",
		})
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), usr.SchoolID, period)
	return sum, errors.Wrap(err, "summarizing")
}

func (api *reportApi) summary(ctx echo.Context) error {
	sum, err := api.getSummary(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *reportApi) export(ctx echo.Context) error {
	sum, err := api.getSummary(ctx)
	if err != nil {
		return err
	}
	buf, err := spreadsheet.ExportSummary(sum)
	if err != nil {
		return errors.Wrap(err, "exporting summary")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFilename(sum.Period)))
	return ctx.Stream(http.StatusOK, spreadsheet.ContentType, bytes.NewReader(buf.Bytes()))
}

func exportFilename(p report.Period) string {
	name := "summary"
	if !p.From.IsZero() {
		name += "_" + p.From.String()
	}
	if !p.To.IsZero() {
		name += "_" + p.To.String()
	}
	return name + ".xlsx"
}
