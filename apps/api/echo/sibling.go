package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

type (
	SiblingLinker interface {
		LinkSiblings(ctx context.Context, primaryPersonID string, siblingPersonIDs []string, note string, exec ...core.DBExecutor) (sibling.LinkResult, error)
		LinkProfiles(ctx context.Context, primaryPersonID string, siblingProfileIDs []string, note string, exec ...core.DBExecutor) (sibling.LinkResult, error)
		UnlinkSiblings(ctx context.Context, personA, personB string, exec ...core.DBExecutor) error
		AreSiblings(ctx context.Context, personA, personB string) (bool, error)
		ListSiblings(ctx context.Context, personID string) ([]person.Person, error)
	}

	siblingApi struct {
		linker     SiblingLinker
		validate   *validator.Validate
		translator ut.Translator
	}

	// LinkRequest links PersonID to the persons of PersonIDs and to the owners of ProfileIDs.
	LinkRequest struct {
		PersonID   string   `json:"person_id" validate:"required"`
		PersonIDs  []string `json:"person_ids" validate:"max=20"`
		ProfileIDs []string `json:"profile_ids" validate:"max=20"`
		Note       string   `json:"note" validate:"max=500"`
	}

	AreSiblingsResponse struct {
		AreSiblings bool `json:"are_siblings"`
	}
)

func registerSiblingAPI(g *echo.Group, linker SiblingLinker, validate *validator.Validate, translator ut.Translator) {
	api := siblingApi{linker: linker, validate: validate, translator: translator}

	sg := g.Group("/siblings")
	sg.POST("", api.link)
	sg.DELETE("", api.unlink)
	sg.GET("/check", api.check)

	g.GET("/persons/:id/siblings", api.list)
}

func pairParams(ctx echo.Context) (string, string, error) {
	a, b := ctx.QueryParam("person_a"), ctx.QueryParam("person_b")
	var flds []core.FieldError
	if a == "" {
		flds = append(flds, core.FieldError{Field: "person_a", Error: "this field is required"})
	}
	if b == "" {
		flds = append(flds, core.FieldError{Field: "person_b", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return "", "", core.NewValidationError(nil, flds...)
	}
	return a, b, nil
}

// Handlers

func (api *siblingApi) link(ctx echo.Context) error {
	var data LinkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if len(data.PersonIDs) == 0 && len(data.ProfileIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "person_ids", Error: "select at least one sibling"})
	}

	reqCtx := ctx.Request().Context()
	res, err := api.linker.LinkSiblings(reqCtx, data.PersonID, data.PersonIDs, data.Note)
	if err != nil {
		return errors.Wrap(err, "linking siblings")
	}
	byProfile, err := api.linker.LinkProfiles(reqCtx, data.PersonID, data.ProfileIDs, data.Note)
	if err != nil {
		return errors.Wrap(err, "linking sibling profiles")
	}
	res.Merge(byProfile)
	return ctx.JSON(http.StatusOK, res)
}

func (api *siblingApi) unlink(ctx echo.Context) error {
	a, b, err := pairParams(ctx)
	if err != nil {
		return err
	}
	if err = api.linker.UnlinkSiblings(ctx.Request().Context(), a, b); err != nil {
		return errors.Wrap(err, "unlinking siblings")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *siblingApi) check(ctx echo.Context) error {
	a, b, err := pairParams(ctx)
	if err != nil {
		return err
	}
	ok, err := api.linker.AreSiblings(ctx.Request().Context(), a, b)
	if err != nil {
		return errors.Wrap(err, "checking siblings")
	}
	return ctx.JSON(http.StatusOK, AreSiblingsResponse{AreSiblings: ok})
}

func (api *siblingApi) list(ctx echo.Context) error {
	siblings, err := api.linker.ListSiblings(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing siblings")
	}
	return ctx.JSON(http.StatusOK, siblings)
}
