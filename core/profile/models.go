package profile

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
)

type Program string

const (
	ProgramDugsi Program = "DUGSI"
	ProgramMahad Program = "MAHAD"
)

var Programs = []Program{ProgramDugsi, ProgramMahad}

// ParseProgram accepts any casing, eg. "mahad".
func ParseProgram(s string) (Program, bool) {
	p := Program(strings.ToUpper(core.CleanString(s)))
	return p, p.IsValid()
}

func (p Program) IsValid() bool {
	return p == ProgramDugsi || p == ProgramMahad
}

func (p Program) Label() string {
	switch p {
	case ProgramDugsi:
		return "Dugsi"
	case ProgramMahad:
		return "Mahad"
	}
	return string(p)
}

type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusEnrolled   Status = "ENROLLED"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusWithdrawn  Status = "WITHDRAWN"
)

var (
	statusLabels = map[Status]string{
		StatusRegistered: "Registered",
		StatusEnrolled:   "Enrolled",
		StatusOnLeave:    "On Leave",
		StatusWithdrawn:  "Withdrawn",
	}

	// WITHDRAWN is terminal; re-registration creates a new profile.
	statusTransitions = map[Status][]Status{
		StatusRegistered: {StatusEnrolled, StatusOnLeave, StatusWithdrawn},
		StatusEnrolled:   {StatusOnLeave, StatusWithdrawn},
		StatusOnLeave:    {StatusEnrolled, StatusWithdrawn},
	}
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(core.CleanString(s)))
	_, ok := statusLabels[st]
	return st, ok
}

func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human-readable enrollment status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsActive reports whether a profile in this status counts as an active enrollment.
func (s Status) IsActive() bool {
	return s.IsValid() && s != StatusWithdrawn
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range statusTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

// ParseShift accepts any casing. Unknown values are returned upper-cased for the validators to reject.
func ParseShift(s string) (Shift, bool) {
	sh := Shift(strings.ToUpper(core.CleanString(s)))
	return sh, sh.IsValid()
}

func (s Shift) IsValid() bool {
	return s == ShiftMorning || s == ShiftAfternoon
}

type ProgramProfile struct {
	ID             string      `json:"id"`
	PersonID       string      `json:"person_id"`
	Program        Program     `json:"program"`
	Status         Status      `json:"status"`
	EducationLevel null.String `json:"education_level"`
	GradeLevel     null.String `json:"grade_level"`
	SchoolName     null.String `json:"school_name"`
	Shift          null.String `json:"shift"`
	BillingType    null.String `json:"billing_type"`
	MonthlyRate    null.Int    `json:"monthly_rate"` // cents
	CreatedAt      time.Time   `json:"created_at"`   // UTC
	UpdatedAt      time.Time   `json:"updated_at"`   // UTC
}

func (p ProgramProfile) IsActive() bool { return p.Status.IsActive() }

type Enrollment struct {
	ID        string      `json:"id"`
	ProfileID string      `json:"profile_id"`
	Status    Status      `json:"status"`
	Reason    null.String `json:"reason"`
	StartDate time.Time   `json:"start_date"` // UTC
	EndDate   null.Time   `json:"end_date"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

func (e Enrollment) IsOpen() bool { return !e.EndDate.Valid }

// NewProfile contains information needed to create a ProgramProfile and its first Enrollment.
type NewProfile struct {
	PersonID       string  `json:"person_id" validate:"required"`
	Program        Program `json:"program" validate:"required,program"`
	EducationLevel string  `json:"education_level" validate:"omitempty,max=50"`
	GradeLevel     string  `json:"grade_level" validate:"omitempty,max=50"`
	SchoolName     string  `json:"school_name" validate:"omitempty,max=200"`
	Shift          Shift   `json:"shift" validate:"omitempty,oneof=MORNING AFTERNOON"`
	BillingType    string  `json:"billing_type" validate:"omitempty,oneof=FULL_TIME PART_TIME SCHOLARSHIP EXEMPT"`
	MonthlyRate    int     `json:"monthly_rate" validate:"gte=0"`
}

type QueryFilter struct {
	Program  Program  `query:"program"`
	Statuses []Status `query:"status"`
	PersonID string   `query:"person_id"`
	Search   string   `query:"search"` // matches person name, email or phone
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = Program(strings.ToUpper(string(qf.Program)))
	for i, st := range qf.Statuses {
		qf.Statuses[i] = Status(strings.ToUpper(string(st)))
	}
}

// RosterRow is one line of a program roster.
type RosterRow struct {
	ProfileID    string    `json:"profile_id"`
	PersonID     string    `json:"person_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Status       Status    `json:"status"`
	Shift        string    `json:"shift"`
	GradeLevel   string    `json:"grade_level"`
	SiblingCount int       `json:"sibling_count"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (r RosterRow) Name() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
