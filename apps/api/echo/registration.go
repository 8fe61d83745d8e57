package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
)

type (
	DuplicateChecker interface {
		CheckDuplicate(ctx context.Context, email, phone string, program profile.Program, exec ...core.DBExecutor) (duplicate.Result, error)
	}

	registrationApi struct {
		registrar registration.Registrar
		detector  DuplicateChecker
	}

	// RegistrationRequest is registration.NewRegistration with a date-only date of birth.
	RegistrationRequest struct {
		Program           string   `json:"program"`
		FirstName         string   `json:"first_name"`
		LastName          string   `json:"last_name"`
		DateOfBirth       string   `json:"date_of_birth"` // YYYY-MM-DD
		Email             string   `json:"email"`
		Phone             string   `json:"phone"`
		WhatsApp          string   `json:"whatsapp"`
		EducationLevel    string   `json:"education_level"`
		GradeLevel        string   `json:"grade_level"`
		SchoolName        string   `json:"school_name"`
		Shift             string   `json:"shift"`
		BillingType       string   `json:"billing_type"`
		SiblingProfileIDs []string `json:"sibling_profile_ids"`
	}
)

func registerRegistrationAPI(g *echo.Group, registrar registration.Registrar, detector DuplicateChecker) {
	api := registrationApi{registrar: registrar, detector: detector}

	g.POST("/registrations", api.register)
	g.GET("/duplicates", api.checkDuplicate)
}

func (req RegistrationRequest) toNewRegistration() (registration.NewRegistration, error) {
	dob, err := parseDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		return registration.NewRegistration{}, err
	}
	program, _ := profile.ParseProgram(req.Program) // validated by the registrar
	shift, _ := profile.ParseShift(req.Shift)
	return registration.NewRegistration{
		Program:           program,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       dob,
		Email:             req.Email,
		Phone:             req.Phone,
		WhatsApp:          req.WhatsApp,
		EducationLevel:    req.EducationLevel,
		GradeLevel:        req.GradeLevel,
		SchoolName:        req.SchoolName,
		Shift:             shift,
		BillingType:       req.BillingType,
		SiblingProfileIDs: req.SiblingProfileIDs,
	}, nil
}

// Handlers

func (api *registrationApi) register(ctx echo.Context) error {
	var data RegistrationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegistrationRequest")
	}
	nr, err := data.toNewRegistration()
	if err != nil {
		vErr, _ := err.(*core.ValidationError)
		fe, _ := vErr.FirstField()
		return ctx.JSON(http.StatusBadRequest, registration.Result{
			Kind:  registration.FailureValidation,
			Error: fe.Error,
			Field: fe.Field,
		})
	}

	res, err := api.registrar.Register(ctx.Request().Context(), nr)
	if err != nil {
		return errors.Wrap(err, "registering")
	}

	code := http.StatusCreated
	switch res.Kind {
	case registration.FailureValidation:
		code = http.StatusBadRequest
	case registration.FailureDuplicate:
		code = http.StatusConflict
	case registration.FailureNotFound:
		code = http.StatusNotFound
	}
	return ctx.JSON(code, res)
}

func (api *registrationApi) checkDuplicate(ctx echo.Context) error {
	program, err := parseProgram(ctx.QueryParam("program"))
	if err != nil {
		return err
	}
	email, phone := ctx.QueryParam("email"), ctx.QueryParam("phone")
	if email == "" && phone == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "enter an email address or a phone number"})
	}

	res, err := api.detector.CheckDuplicate(ctx.Request().Context(), email, phone, program)
	if err != nil {
		return errors.Wrap(err, "checking duplicate")
	}
	return ctx.JSON(http.StatusOK, res)
}
