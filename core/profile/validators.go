package profile

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mustafamuse/irshad-center-sub008/core"
)

var (
	programTag  = "program"
	programText = "unknown program"

	shiftRequiredTag  = "shift_required"
	shiftRequiredText = "Dugsi students must be assigned a morning or afternoon shift"

	shiftForbiddenTag  = "shift_forbidden"
	shiftForbiddenText = "Mahad students are not assigned a shift"
)

// InitValidators registers the profile validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(programTag, programValidation)
	core.RegisterCustomTranslation(validate, translator, programTag, programText)

	validate.RegisterStructValidation(newProfileStructValidation, NewProfile{})
	core.RegisterCustomTranslation(validate, translator, shiftRequiredTag, shiftRequiredText)
	core.RegisterCustomTranslation(validate, translator, shiftForbiddenTag, shiftForbiddenText)
}

// Validate cleans np and checks it against the profile rules.
func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.EducationLevel = core.CleanString(np.EducationLevel)
	np.GradeLevel = core.CleanString(np.GradeLevel)
	np.SchoolName = core.CleanString(np.SchoolName)
	return validate.Struct(np)
}

// Custom Validators

func programValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case Program:
		return v.IsValid()
	case string:
		return Program(v).IsValid()
	}
	return false
}

// newProfileStructValidation applies the program/shift assignment rule.
func newProfileStructValidation(sl validator.StructLevel) {
	np, ok := sl.Current().Interface().(NewProfile)
	if !ok {
		return
	}
	ValidateShift(np.Program, np.Shift, func(tag string) {
		sl.ReportError(np.Shift, "shift", "Shift", tag, "")
	})
}

// ValidateShift calls report with the failing tag when shift does not fit program.
func ValidateShift(program Program, shift Shift, report func(tag string)) {
	switch program {
	case ProgramDugsi:
		if shift == "" {
			report(shiftRequiredTag)
		}
	case ProgramMahad:
		if shift != "" {
			report(shiftForbiddenTag)
		}
	}
}
