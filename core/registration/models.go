package registration

import (
	"time"

	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

// NewRegistration is the payload of a program registration.
type NewRegistration struct {
	Program           profile.Program `json:"program" validate:"required,program"`
	FirstName         string          `json:"first_name" validate:"required,max=100,personname"`
	LastName          string          `json:"last_name" validate:"required,max=100,personname"`
	DateOfBirth       time.Time       `json:"date_of_birth" validate:"pastdate"`
	Email             string          `json:"email" validate:"omitempty,max=254,email"`
	Phone             string          `json:"phone" validate:"omitempty,phone"`
	WhatsApp          string          `json:"whatsapp" validate:"omitempty,phone"`
	EducationLevel    string          `json:"education_level" validate:"omitempty,max=50"`
	GradeLevel        string          `json:"grade_level" validate:"omitempty,max=50"`
	SchoolName        string          `json:"school_name" validate:"omitempty,max=200"`
	Shift             profile.Shift   `json:"shift" validate:"omitempty,oneof=MORNING AFTERNOON"`
	BillingType       string          `json:"billing_type" validate:"omitempty,oneof=FULL_TIME PART_TIME SCHOLARSHIP EXEMPT"`
	SiblingProfileIDs []string        `json:"sibling_profile_ids" validate:"max=20"`
}

func (nr NewRegistration) newPerson() person.NewPerson {
	return person.NewPerson{
		FirstName:   nr.FirstName,
		LastName:    nr.LastName,
		DateOfBirth: nr.DateOfBirth,
		Email:       nr.Email,
		Phone:       nr.Phone,
		WhatsApp:    nr.WhatsApp,
	}
}

func (nr NewRegistration) newProfile(personID string) profile.NewProfile {
	return profile.NewProfile{
		PersonID:       personID,
		Program:        nr.Program,
		EducationLevel: nr.EducationLevel,
		GradeLevel:     nr.GradeLevel,
		SchoolName:     nr.SchoolName,
		Shift:          nr.Shift,
		BillingType:    nr.BillingType,
	}
}

// FailureKind classifies a failed registration.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureDuplicate  FailureKind = "duplicate" // includes the insert-time constraint race
	FailureNotFound   FailureKind = "not_found"
)

// Result is the outcome of a registration as shown to the registrant.
// On failure Error holds a human-readable message and Field, when set, the offending input.
type Result struct {
	Success   bool               `json:"success"`
	Kind      FailureKind        `json:"kind,omitempty"`
	ProfileID string             `json:"profile_id,omitempty"`
	PersonID  string             `json:"person_id,omitempty"`
	Name      string             `json:"name,omitempty"`
	Attached  bool               `json:"attached,omitempty"` // an existing person received the new profile
	Siblings  sibling.LinkResult `json:"siblings"`
	Error     string             `json:"error,omitempty"`
	Field     string             `json:"field,omitempty"`
}

func failure(kind FailureKind, msg, field string) Result {
	return Result{Kind: kind, Error: msg, Field: field}
}

// DuplicateError is returned when the registrant already holds an active profile in the program.
type DuplicateError struct {
	Field          duplicate.Field
	Message        string
	ExistingPerson *duplicate.ExistingPerson
	ActiveProfile  *duplicate.ActiveProfile
}

func newDuplicateError(program profile.Program, dup duplicate.Result) *DuplicateError {
	var msg string
	switch dup.DuplicateField {
	case duplicate.FieldPhone:
		msg = "a person with this phone number is already registered for " + program.Label()
	default:
		msg = "a person with this email address is already registered for " + program.Label()
	}
	if ap := dup.ActiveProfile; ap != nil {
		msg += " (" + ap.StatusLabel + " since " + ap.CreatedAtLabel + ")"
	}
	return &DuplicateError{
		Field:          dup.DuplicateField,
		Message:        msg,
		ExistingPerson: dup.ExistingPerson,
		ActiveProfile:  dup.ActiveProfile,
	}
}

func (err DuplicateError) Error() string {
	return err.Message
}

// FormField is the form input the error is attached to. A match on both fields is shown on email.
func (err DuplicateError) FormField() string {
	if err.Field == duplicate.FieldPhone {
		return string(duplicate.FieldPhone)
	}
	return string(duplicate.FieldEmail)
}
