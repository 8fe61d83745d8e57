package duplicate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

// Field tells which input matched an existing person.
type Field string

const (
	FieldNone  Field = ""
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
	FieldBoth  Field = "both"
)

type (
	PersonFinder interface {
		FindByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (person.Person, error)
		FindByPhone(ctx context.Context, phone string, exec ...core.DBExecutor) (person.Person, error)
	}

	ProfileFinder interface {
		ActiveProfile(ctx context.Context, personID string, program profile.Program, exec ...core.DBExecutor) (profile.ProgramProfile, error)
	}

	ExistingPerson struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
		RegisteredAt string `json:"registered_at"`
	}

	ActiveProfile struct {
		ID             string          `json:"id"`
		Program        profile.Program `json:"program"`
		Status         profile.Status  `json:"status"`
		StatusLabel    string          `json:"status_label"`
		CreatedAt      time.Time       `json:"created_at"`
		CreatedAtLabel string          `json:"created_at_label"`
	}

	Result struct {
		IsDuplicate      bool            `json:"is_duplicate"`
		HasActiveProfile bool            `json:"has_active_profile"`
		DuplicateField   Field           `json:"duplicate_field,omitempty"`
		ExistingPerson   *ExistingPerson `json:"existing_person,omitempty"`
		ActiveProfile    *ActiveProfile  `json:"active_profile,omitempty"`
		// PhoneMatchPersonID is set when the phone belongs to a different person than the email.
		PhoneMatchPersonID string `json:"phone_match_person_id,omitempty"`

		person person.Person
	}

	Detector struct {
		persons  PersonFinder
		profiles ProfileFinder
	}
)

// Person returns the matched person, if any.
func (r Result) Person() (person.Person, bool) {
	return r.person, r.IsDuplicate
}

// Blocking reports whether a registration into the program must be rejected.
// A match without an active profile should resume or attach instead.
func (r Result) Blocking() bool {
	return r.IsDuplicate && r.HasActiveProfile
}

func NewDetector(persons PersonFinder, profiles ProfileFinder) *Detector {
	return &Detector{persons: persons, profiles: profiles}
}

// CheckDuplicate looks for an existing person owning email or phone and for their active profile in program.
// Either input may be empty; unusable inputs never match. When email and phone belong to different persons
// the email match wins. It has no side effects.
func (d *Detector) CheckDuplicate(ctx context.Context, email, phone string, program profile.Program, exec ...core.DBExecutor) (Result, error) {
	var res Result

	byEmail, emailOK, err := d.find(ctx, d.persons.FindByEmail, normalize.Email(email), exec...)
	if err != nil {
		return res, errors.Wrap(err, "finding person by email")
	}
	byPhone, phoneOK, err := d.find(ctx, d.persons.FindByPhone, normalize.Phone(phone), exec...)
	if err != nil {
		return res, errors.Wrap(err, "finding person by phone")
	}

	var match person.Person
	switch {
	case emailOK && phoneOK && byEmail.ID == byPhone.ID:
		match, res.DuplicateField = byEmail, FieldBoth
	case emailOK:
		match, res.DuplicateField = byEmail, FieldEmail
		if phoneOK {
			res.PhoneMatchPersonID = byPhone.ID
		}
	case phoneOK:
		match, res.DuplicateField = byPhone, FieldPhone
	default:
		return res, nil
	}

	res.IsDuplicate = true
	res.person = match
	res.ExistingPerson = newExistingPerson(match)

	if !program.IsValid() {
		return res, nil
	}
	p, err := d.profiles.ActiveProfile(ctx, match.ID, program, exec...)
	switch errors.Cause(err) {
	case nil:
		res.HasActiveProfile = true
		res.ActiveProfile = &ActiveProfile{
			ID:             p.ID,
			Program:        p.Program,
			Status:         p.Status,
			StatusLabel:    p.Status.Label(),
			CreatedAt:      p.CreatedAt,
			CreatedAtLabel: core.FormatDate(p.CreatedAt),
		}
	case profile.ErrNotFound:
	default:
		return Result{}, errors.Wrap(err, "finding active profile")
	}
	return res, nil
}

type findFunc func(ctx context.Context, value string, exec ...core.DBExecutor) (person.Person, error)

func (d *Detector) find(ctx context.Context, fn findFunc, value string, exec ...core.DBExecutor) (person.Person, bool, error) {
	if value == "" {
		return person.Person{}, false, nil
	}
	p, err := fn(ctx, value, exec...)
	if err != nil {
		if errors.Cause(err) == person.ErrNotFound {
			return person.Person{}, false, nil
		}
		return person.Person{}, false, err
	}
	return p, true, nil
}

func newExistingPerson(p person.Person) *ExistingPerson {
	return &ExistingPerson{
		ID:           p.ID,
		Name:         p.Name(),
		Email:        p.PrimaryEmail(),
		Phone:        p.PrimaryPhone(),
		RegisteredAt: core.FormatDate(p.CreatedAt),
	}
}
