package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

type profileRepository struct {
	db      *DB
	persons *personRepository
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db, persons: &personRepository{db: db}}
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.ProgramProfile, exec ...core.DBExecutor) (profile.ProgramProfile, error) {
	defer repo.db.lockWrite(exec)()

	// foreign key
	if _, ok := repo.db.person[p.PersonID]; !ok {
		return profile.ProgramProfile{}, person.ErrNotFound
	}
	// partial unique index on active profiles
	if p.IsActive() {
		for _, existing := range repo.db.profile {
			if existing.PersonID == p.PersonID && existing.Program == p.Program && existing.IsActive() {
				return profile.ProgramProfile{}, profile.ErrActiveProfileExists
			}
		}
	}
	p.ID = uuid.New().String()
	repo.db.profile[p.ID] = p
	return p, nil
}

func (repo *profileRepository) GetProfile(_ context.Context, id string, _ ...core.DBExecutor) (profile.ProgramProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.profile[id]; ok {
		return p, nil
	}
	return profile.ProgramProfile{}, profile.ErrNotFound
}

func (repo *profileRepository) matches(p profile.ProgramProfile, filter *profile.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Program != "" && p.Program != filter.Program {
		return false
	}
	if filter.PersonID != "" && p.PersonID != filter.PersonID {
		return false
	}
	if len(filter.Statuses) > 0 {
		var ok bool
		for _, st := range filter.Statuses {
			if p.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if filter.Search != "" {
		prsn, ok := repo.persons.get(p.PersonID)
		if !ok {
			return false
		}
		search := normalize.NameCI(filter.Search)
		if strings.Contains(normalize.NameCI(prsn.Name()), search) {
			return true
		}
		for _, c := range prsn.Contacts {
			if strings.Contains(c.Value, strings.ToLower(filter.Search)) {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]profile.ProgramProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]profile.ProgramProfile, 0)
	for _, p := range repo.db.profile {
		if repo.matches(p, filter) {
			profiles = append(profiles, p)
		}
	}
	sortProfiles(profiles, ordering)
	return profiles, nil
}

// sortProfiles supports the columns the SQL repository accepts; the ID is the final tie-break.
func sortProfiles(profiles []profile.ProgramProfile, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "created_at":
				cmp = a.CreatedAt.Compare(b.CreatedAt)
			case "updated_at":
				cmp = a.UpdatedAt.Compare(b.UpdatedAt)
			case "status":
				cmp = strings.Compare(string(a.Status), string(b.Status))
			case "program":
				cmp = strings.Compare(string(a.Program), string(b.Program))
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return a.ID < b.ID
	})
}

func (repo *profileRepository) UpdateProfileStatus(_ context.Context, id string, status profile.Status, updatedAt time.Time, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	p, ok := repo.db.profile[id]
	if !ok {
		return profile.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	repo.db.profile[id] = p
	return nil
}

func (repo *profileRepository) CreateEnrollment(_ context.Context, e profile.Enrollment, exec ...core.DBExecutor) (profile.Enrollment, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.profile[e.ProfileID]; !ok {
		return profile.Enrollment{}, profile.ErrNotFound
	}
	e.ID = uuid.New().String()
	repo.db.enrollment[e.ID] = e
	return e, nil
}

func (repo *profileRepository) CloseOpenEnrollments(_ context.Context, profileID string, endDate time.Time, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	for id, e := range repo.db.enrollment {
		if e.ProfileID == profileID && e.IsOpen() {
			e.EndDate = null.TimeFrom(endDate)
			repo.db.enrollment[id] = e
		}
	}
	return nil
}

func (repo *profileRepository) QueryEnrollments(_ context.Context, profileID string, _ ...core.DBExecutor) ([]profile.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]profile.Enrollment, 0)
	for _, e := range repo.db.enrollment {
		if e.ProfileID == profileID {
			enrollments = append(enrollments, e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		if enrollments[i].StartDate.Equal(enrollments[j].StartDate) {
			return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt) ||
				(enrollments[i].CreatedAt.Equal(enrollments[j].CreatedAt) && enrollments[i].ID < enrollments[j].ID)
		}
		return enrollments[i].StartDate.Before(enrollments[j].StartDate)
	})
	return enrollments, nil
}

func (repo *profileRepository) QueryRoster(_ context.Context, program profile.Program, _ ...core.DBExecutor) ([]profile.RosterRow, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]profile.ProgramProfile, 0)
	for _, p := range repo.db.profile {
		if p.Program == program && p.IsActive() {
			profiles = append(profiles, p)
		}
	}
	sortProfiles(profiles, []core.DBOrdering{{Field: "created_at", Ascending: true}})

	rows := make([]profile.RosterRow, 0, len(profiles))
	for _, p := range profiles {
		prsn, _ := repo.persons.get(p.PersonID)
		rows = append(rows, profile.RosterRow{
			ProfileID:    p.ID,
			PersonID:     p.PersonID,
			FirstName:    prsn.FirstName,
			LastName:     prsn.LastName,
			Email:        prsn.PrimaryEmail(),
			Phone:        prsn.PrimaryPhone(),
			Status:       p.Status,
			Shift:        p.Shift.String,
			GradeLevel:   p.GradeLevel.String,
			SiblingCount: repo.activeSiblingCount(p.PersonID),
			RegisteredAt: p.CreatedAt,
		})
	}
	return rows, nil
}

func (repo *profileRepository) activeSiblingCount(personID string) int {
	var n int
	for _, rel := range repo.db.sibling {
		if rel.IsActive() && (rel.Person1ID == personID || rel.Person2ID == personID) {
			n++
		}
	}
	return n
}
