package registration

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

var (
	phoneTag  = "phone"
	phoneText = "enter a valid 10 or 11 digit phone number"

	emailOrPhoneTag  = "email_or_phone"
	emailOrPhoneText = "enter an email address or a phone number"
)

// InitValidators registers the registration validators, profile ones included.
// core.InitValidators must have been called on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	profile.InitValidators(validate, translator)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	validate.RegisterStructValidation(registrationStructValidation, NewRegistration{})
	core.RegisterCustomTranslation(validate, translator, emailOrPhoneTag, emailOrPhoneText)
}

// Validate cleans nr and checks it.
func (nr *NewRegistration) Validate(validate *validator.Validate) error {
	nr.FirstName = normalize.Name(nr.FirstName)
	nr.LastName = normalize.Name(nr.LastName)
	nr.Email = core.CleanString(nr.Email)
	nr.Phone = core.CleanString(nr.Phone)
	nr.WhatsApp = core.CleanString(nr.WhatsApp)
	nr.EducationLevel = core.CleanString(nr.EducationLevel)
	nr.GradeLevel = core.CleanString(nr.GradeLevel)
	nr.SchoolName = core.CleanString(nr.SchoolName)
	return validate.Struct(nr)
}

// Custom Validators

func phoneValidation(fl validator.FieldLevel) bool {
	return normalize.Phone(fl.Field().String()) != ""
}

func registrationStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewRegistration)
	if !ok {
		return
	}

	if nr.Email == "" && nr.Phone == "" {
		sl.ReportError(nr.Email, "email", "Email", emailOrPhoneTag, "")
	}
	profile.ValidateShift(nr.Program, nr.Shift, func(tag string) {
		sl.ReportError(nr.Shift, "shift", "Shift", tag, "")
	})
}
