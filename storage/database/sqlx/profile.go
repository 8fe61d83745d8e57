package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

const activeProfileKey = "program_profile_active_key"

const profileColumns = `id, person_id, program, status, education_level, grade_level, school_name,
	shift, billing_type, monthly_rate, created_at, updated_at`

// columns accepted in QueryProfiles orderings
var profileOrderingColumns = map[string]string{
	"created_at": "pp.created_at",
	"updated_at": "pp.updated_at",
	"status":     "pp.status",
	"program":    "pp.program",
}

type (
	profileRow struct {
		ID             string      `db:"id"`
		PersonID       string      `db:"person_id"`
		Program        string      `db:"program"`
		Status         string      `db:"status"`
		EducationLevel null.String `db:"education_level"`
		GradeLevel     null.String `db:"grade_level"`
		SchoolName     null.String `db:"school_name"`
		Shift          null.String `db:"shift"`
		BillingType    null.String `db:"billing_type"`
		MonthlyRate    null.Int    `db:"monthly_rate"`
		CreatedAt      time.Time   `db:"created_at"`
		UpdatedAt      time.Time   `db:"updated_at"`
	}

	enrollmentRow struct {
		ID        string      `db:"id"`
		ProfileID string      `db:"profile_id"`
		Status    string      `db:"status"`
		Reason    null.String `db:"reason"`
		StartDate time.Time   `db:"start_date"`
		EndDate   null.Time   `db:"end_date"`
		CreatedAt time.Time   `db:"created_at"`
	}

	rosterRow struct {
		ProfileID    string    `db:"profile_id"`
		PersonID     string    `db:"person_id"`
		FirstName    string    `db:"first_name"`
		LastName     string    `db:"last_name"`
		Email        string    `db:"email"`
		Phone        string    `db:"phone"`
		Status       string    `db:"status"`
		Shift        string    `db:"shift"`
		GradeLevel   string    `db:"grade_level"`
		SiblingCount int       `db:"sibling_count"`
		RegisteredAt time.Time `db:"registered_at"`
	}

	profileRepository struct {
		repository
	}
)

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(exec core.DBExecutor) profile.Repository {
	return &profileRepository{repository{exec: exec}}
}

func (row profileRow) toProfile() profile.ProgramProfile {
	return profile.ProgramProfile{
		ID:             row.ID,
		PersonID:       row.PersonID,
		Program:        profile.Program(row.Program),
		Status:         profile.Status(row.Status),
		EducationLevel: row.EducationLevel,
		GradeLevel:     row.GradeLevel,
		SchoolName:     row.SchoolName,
		Shift:          row.Shift,
		BillingType:    row.BillingType,
		MonthlyRate:    row.MonthlyRate,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func (row enrollmentRow) toEnrollment() profile.Enrollment {
	return profile.Enrollment{
		ID:        row.ID,
		ProfileID: row.ProfileID,
		Status:    profile.Status(row.Status),
		Reason:    row.Reason,
		StartDate: row.StartDate.UTC(),
		EndDate:   row.EndDate,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo profileRepository) CreateProfile(ctx context.Context, p profile.ProgramProfile, exec ...core.DBExecutor) (profile.ProgramProfile, error) {
	p.ID = newID()
	const q = `
		INSERT INTO program_profile (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.getExec(exec).ExecContext(
		ctx, q,
		p.ID, p.PersonID, p.Program, p.Status, p.EducationLevel, p.GradeLevel, p.SchoolName,
		p.Shift, p.BillingType, p.MonthlyRate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, activeProfileKey):
			return profile.ProgramProfile{}, profile.ErrActiveProfileExists
		case isForeignKeyViolation(err):
			return profile.ProgramProfile{}, person.ErrNotFound
		}
		return profile.ProgramProfile{}, errors.Wrap(err, "inserting program profile")
	}
	return p, nil
}

func (repo profileRepository) GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (profile.ProgramProfile, error) {
	if !validID(id) {
		return profile.ProgramProfile{}, profile.ErrNotFound
	}
	var row profileRow
	q := `SELECT ` + profileColumns + ` FROM program_profile WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return profile.ProgramProfile{}, trapNoRowsErr(err, profile.ErrNotFound, "getting program profile")
	}
	return row.toProfile(), nil
}

func (repo profileRepository) QueryProfiles(ctx context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]profile.ProgramProfile, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Program != "" {
			where = append(where, "pp.program = "+arg(filter.Program))
		}
		if filter.PersonID != "" {
			if !validID(filter.PersonID) {
				return []profile.ProgramProfile{}, nil
			}
			where = append(where, "pp.person_id = "+arg(filter.PersonID))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, st := range filter.Statuses {
				statuses = append(statuses, string(st))
			}
			where = append(where, "pp.status = ANY("+arg(pq.Array(statuses))+")")
		}
		// profiles whose person name or contact values match the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			where = append(where, `pp.person_id IN (
				SELECT pe.id FROM person pe LEFT JOIN contact_point c ON c.person_id = pe.id
				WHERE pe.first_name || ' ' || pe.last_name ILIKE `+val+` OR c.value ILIKE `+val+`)`)
		}
	}

	q := `SELECT ` + prefixColumns("pp.", profileColumns) + ` FROM program_profile pp`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, profileOrderingColumns, "pp.created_at DESC") + ", pp.id"

	var rows []profileRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying program profiles")
	}
	profiles := make([]profile.ProgramProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toProfile())
	}
	return profiles, nil
}

func prefixColumns(prefix, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func (repo profileRepository) UpdateProfileStatus(ctx context.Context, id string, status profile.Status, updatedAt time.Time, exec ...core.DBExecutor) error {
	if !validID(id) {
		return profile.ErrNotFound
	}
	const q = `UPDATE program_profile SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, id, status, updatedAt)
	if err != nil {
		return errors.Wrap(err, "updating program profile status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (repo profileRepository) CreateEnrollment(ctx context.Context, e profile.Enrollment, exec ...core.DBExecutor) (profile.Enrollment, error) {
	e.ID = newID()
	const q = `
		INSERT INTO enrollment (id, profile_id, status, reason, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, e.ID, e.ProfileID, e.Status, e.Reason, e.StartDate, e.EndDate, e.CreatedAt); err != nil {
		return profile.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo profileRepository) CloseOpenEnrollments(ctx context.Context, profileID string, endDate time.Time, exec ...core.DBExecutor) error {
	const q = `UPDATE enrollment SET end_date = $2 WHERE profile_id = $1 AND end_date IS NULL`
	_, err := repo.getExec(exec).ExecContext(ctx, q, profileID, endDate)
	return errors.Wrap(err, "closing enrollments")
}

func (repo profileRepository) QueryEnrollments(ctx context.Context, profileID string, exec ...core.DBExecutor) ([]profile.Enrollment, error) {
	if !validID(profileID) {
		return []profile.Enrollment{}, nil
	}
	var rows []enrollmentRow
	const q = `
		SELECT id, profile_id, status, reason, start_date, end_date, created_at
		FROM enrollment WHERE profile_id = $1 ORDER BY start_date, created_at, id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, profileID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]profile.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toEnrollment())
	}
	return enrollments, nil
}

func (repo profileRepository) QueryRoster(ctx context.Context, program profile.Program, exec ...core.DBExecutor) ([]profile.RosterRow, error) {
	const q = `
		SELECT
			pp.id AS profile_id,
			pe.id AS person_id,
			pe.first_name,
			pe.last_name,
			COALESCE((
				SELECT c.value FROM contact_point c
				WHERE c.person_id = pe.id AND c.kind = 'EMAIL' AND c.state = 'ACTIVE'
				ORDER BY c.is_primary DESC, c.created_at LIMIT 1
			), '') AS email,
			COALESCE((
				SELECT c.value FROM contact_point c
				WHERE c.person_id = pe.id AND c.kind IN ('PHONE', 'WHATSAPP') AND c.state = 'ACTIVE'
				ORDER BY c.is_primary DESC, c.created_at LIMIT 1
			), '') AS phone,
			pp.status,
			COALESCE(pp.shift, '') AS shift,
			COALESCE(pp.grade_level, '') AS grade_level,
			(
				SELECT COUNT(*) FROM sibling_relationship s
				WHERE s.state = 'ACTIVE' AND (s.person1_id = pe.id OR s.person2_id = pe.id)
			) AS sibling_count,
			pp.created_at AS registered_at
		FROM program_profile pp
		JOIN person pe ON pe.id = pp.person_id
		WHERE pp.program = $1 AND pp.status <> 'WITHDRAWN'
		ORDER BY pp.created_at, pp.id`

	var rows []rosterRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, program); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	roster := make([]profile.RosterRow, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, profile.RosterRow{
			ProfileID:    row.ProfileID,
			PersonID:     row.PersonID,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Email:        row.Email,
			Phone:        row.Phone,
			Status:       profile.Status(row.Status),
			Shift:        row.Shift,
			GradeLevel:   row.GradeLevel,
			SiblingCount: row.SiblingCount,
			RegisteredAt: row.RegisteredAt.UTC(),
		})
	}
	return roster, nil
}
