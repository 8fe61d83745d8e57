package echoapi

import (
	"bytes"
	"context"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	reportsvc "github.com/mustafamuse/irshad-center-sub008/services/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type (
	ProfileService interface {
		GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (profile.ProgramProfile, error)
		Query(ctx context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.ProgramProfile, error)
		Enrollments(ctx context.Context, profileID string) ([]profile.Enrollment, error)
		UpdateStatus(ctx context.Context, profileID string, next profile.Status, reason string) (profile.ProgramProfile, error)
		Roster(ctx context.Context, program profile.Program) ([]profile.RosterRow, error)
	}

	profileApi struct {
		svc        ProfileService
		validate   *validator.Validate
		translator ut.Translator
	}

	StatusUpdateRequest struct {
		Status string `json:"status" validate:"required"`
		Reason string `json:"reason" validate:"max=500"`
	}
)

func registerProfileAPI(g *echo.Group, svc ProfileService, validate *validator.Validate, translator ut.Translator) {
	api := profileApi{svc: svc, validate: validate, translator: translator}

	pg := g.Group("/profiles")
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.GET("/:id/enrollments", api.enrollments)
	pg.PATCH("/:id/status", api.updateStatus)

	g.GET("/programs/:program/roster.xlsx", api.roster)
}

// Handlers

func (api *profileApi) query(ctx echo.Context) error {
	filter := new(profile.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []profile.ProgramProfile{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	profiles, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []profile.ProgramProfile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) enrollments(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	p, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	enrollments, err := api.svc.Enrollments(reqCtx, p.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *profileApi) updateStatus(ctx echo.Context) error {
	var data StatusUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdateRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	status, ok := profile.ParseStatus(data.Status)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}

	p, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), status, data.Reason)
	if err != nil {
		return errors.Wrap(err, "updating profile status")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) roster(ctx echo.Context) error {
	program, err := parseProgram(ctx.Param("program"))
	if err != nil {
		return err
	}
	rows, err := api.svc.Roster(ctx.Request().Context(), program)
	if err != nil {
		return errors.Wrap(err, "getting roster")
	}

	var buf bytes.Buffer
	if err = reportsvc.WriteRoster(&buf, program, rows); err != nil {
		return errors.Wrap(err, "writing roster")
	}
	filename := reportsvc.RosterFilename(program, time.Now().UTC().Format(dateLayout))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
