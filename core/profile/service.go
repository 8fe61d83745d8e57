package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
)

var (
	// errors
	ErrNotFound          = errors.New("program profile not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrActiveProfileExists surfaces the one-active-profile-per-program constraint.
	ErrActiveProfileExists = errors.New("the person already holds an active profile in this program")
)

// nowFunc is mockable
var nowFunc = time.Now

type (
	Repository interface {
		CreateProfile(ctx context.Context, p ProgramProfile, exec ...core.DBExecutor) (ProgramProfile, error)
		GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (ProgramProfile, error)
		// QueryProfiles applies AND operation on available QueryFilter fields.
		QueryProfiles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]ProgramProfile, error)
		UpdateProfileStatus(ctx context.Context, id string, status Status, updatedAt time.Time, exec ...core.DBExecutor) error
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		// CloseOpenEnrollments sets the end date of every open enrollment of the profile.
		CloseOpenEnrollments(ctx context.Context, profileID string, endDate time.Time, exec ...core.DBExecutor) error
		QueryEnrollments(ctx context.Context, profileID string, exec ...core.DBExecutor) ([]Enrollment, error)
		// QueryRoster lists the program's profiles with person and sibling information, oldest first.
		QueryRoster(ctx context.Context, program Program, exec ...core.DBExecutor) ([]RosterRow, error)
	}

	Service struct {
		db   core.Transactor
		repo Repository
	}
)

func NewService(db core.Transactor, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

// CreateProgramProfileWithEnrollment stores a REGISTERED profile and opens its first enrollment.
// np must be validated. Pass the caller's transaction as exec: both rows are written with it.
func (svc *Service) CreateProgramProfileWithEnrollment(ctx context.Context, np NewProfile, exec ...core.DBExecutor) (ProgramProfile, error) {
	now := nowFunc().UTC()
	p := ProgramProfile{
		PersonID:       normalize.ID(np.PersonID),
		Program:        np.Program,
		Status:         StatusRegistered,
		EducationLevel: null.NewString(np.EducationLevel, np.EducationLevel != ""),
		GradeLevel:     null.NewString(np.GradeLevel, np.GradeLevel != ""),
		SchoolName:     null.NewString(np.SchoolName, np.SchoolName != ""),
		Shift:          null.NewString(string(np.Shift), np.Shift != ""),
		BillingType:    null.NewString(np.BillingType, np.BillingType != ""),
		MonthlyRate:    null.NewInt(np.MonthlyRate, np.MonthlyRate > 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	p, err := svc.repo.CreateProfile(ctx, p, exec...)
	if err != nil {
		return ProgramProfile{}, errors.Wrap(err, "creating program profile")
	}
	if _, err = svc.repo.CreateEnrollment(ctx, Enrollment{
		ProfileID: p.ID,
		Status:    p.Status,
		StartDate: now,
		CreatedAt: now,
	}, exec...); err != nil {
		return ProgramProfile{}, errors.Wrap(err, "creating enrollment")
	}
	return p, nil
}

func (svc *Service) GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (ProgramProfile, error) {
	return svc.repo.GetProfile(ctx, normalize.ID(id), exec...)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]ProgramProfile, error) {
	return svc.repo.QueryProfiles(ctx, filter, ordering)
}

// ActiveProfile returns the most recent active profile the person holds in program, or ErrNotFound.
func (svc *Service) ActiveProfile(ctx context.Context, personID string, program Program, exec ...core.DBExecutor) (ProgramProfile, error) {
	profiles, err := svc.repo.QueryProfiles(
		ctx,
		&QueryFilter{PersonID: normalize.ID(personID), Program: program},
		[]core.DBOrdering{{Field: "created_at", Ascending: false}},
		exec...,
	)
	if err != nil {
		return ProgramProfile{}, errors.Wrap(err, "querying person profiles")
	}
	for _, p := range profiles {
		if p.IsActive() {
			return p, nil
		}
	}
	return ProgramProfile{}, ErrNotFound
}

func (svc *Service) Enrollments(ctx context.Context, profileID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, normalize.ID(profileID))
}

// UpdateStatus moves the profile to next.
// The open enrollment is closed and, unless the profile is withdrawn, a new one is opened with the new status.
func (svc *Service) UpdateStatus(ctx context.Context, profileID string, next Status, reason string) (ProgramProfile, error) {
	var updated ProgramProfile
	err := svc.db.WithTransaction(ctx, func(exec core.DBExecutor) error {
		p, err := svc.repo.GetProfile(ctx, normalize.ID(profileID), exec)
		if err != nil {
			return err
		}
		if !p.Status.CanTransitionTo(next) {
			return core.NewValidationError(ErrInvalidTransition, core.FieldError{
				Field: "status",
				Error: "cannot change status from " + p.Status.Label() + " to " + next.Label(),
			})
		}

		now := nowFunc().UTC()
		if err = svc.repo.UpdateProfileStatus(ctx, p.ID, next, now, exec); err != nil {
			return errors.Wrap(err, "updating profile status")
		}
		if err = svc.repo.CloseOpenEnrollments(ctx, p.ID, now, exec); err != nil {
			return errors.Wrap(err, "closing enrollment")
		}
		if next != StatusWithdrawn {
			reason = core.CleanString(reason)
			if _, err = svc.repo.CreateEnrollment(ctx, Enrollment{
				ProfileID: p.ID,
				Status:    next,
				Reason:    null.NewString(reason, reason != ""),
				StartDate: now,
				CreatedAt: now,
			}, exec); err != nil {
				return errors.Wrap(err, "opening enrollment")
			}
		}

		p.Status = next
		p.UpdatedAt = now
		updated = p
		return nil
	})
	if err != nil {
		return ProgramProfile{}, err
	}
	return updated, nil
}

func (svc *Service) Roster(ctx context.Context, program Program) ([]RosterRow, error) {
	if !program.IsValid() {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "program", Error: programText})
	}
	rows, err := svc.repo.QueryRoster(ctx, program)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return rows, nil
}
