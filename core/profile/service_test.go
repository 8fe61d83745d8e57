package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/tests"
)

func TestService_CreateProgramProfileWithEnrollment(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	svc := profile.NewService(st.Tx, st.Profiles)
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")

	p, err := svc.CreateProgramProfileWithEnrollment(ctx, profile.NewProfile{
		PersonID:   ahmed.ID,
		Program:    profile.ProgramMahad,
		GradeLevel: "10",
	})
	require.NoError(t, err)
	assert.Equal(t, profile.StatusRegistered, p.Status)
	assert.Equal(t, "10", p.GradeLevel.String)
	assert.False(t, p.Shift.Valid)
	assert.False(t, p.MonthlyRate.Valid)

	enrollments, err := svc.Enrollments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.True(t, enrollments[0].IsOpen())

	_, err = svc.CreateProgramProfileWithEnrollment(ctx, profile.NewProfile{PersonID: ahmed.ID, Program: profile.ProgramMahad})
	assert.Equal(t, profile.ErrActiveProfileExists, errors.Cause(err))

	_, err = svc.CreateProgramProfileWithEnrollment(ctx, profile.NewProfile{PersonID: uuid.New().String(), Program: profile.ProgramDugsi})
	assert.Error(t, err)
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	svc := profile.NewService(st.Tx, st.Profiles)
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	p, err := svc.CreateProgramProfileWithEnrollment(ctx, profile.NewProfile{PersonID: ahmed.ID, Program: profile.ProgramMahad})
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		next     profile.Status
		wantErr  error
		wantOpen bool
	}{
		{name: "unknown profile", id: uuid.New().String(), next: profile.StatusEnrolled, wantErr: profile.ErrNotFound},
		{name: "enroll", id: p.ID, next: profile.StatusEnrolled, wantOpen: true},
		{name: "back to registered", id: p.ID, next: profile.StatusRegistered, wantErr: profile.ErrInvalidTransition},
		{name: "leave", id: p.ID, next: profile.StatusOnLeave, wantOpen: true},
		{name: "withdraw", id: p.ID, next: profile.StatusWithdrawn},
		{name: "withdrawn is terminal", id: p.ID, next: profile.StatusEnrolled, wantErr: profile.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.UpdateStatus(ctx, tt.id, tt.next, " summer break ")
			if tt.wantErr != nil {
				if vErr, ok := err.(*core.ValidationError); ok {
					assert.Equal(t, tt.wantErr, vErr.Err)
					return
				}
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, updated.Status)

			enrollments, err := svc.Enrollments(ctx, tt.id)
			require.NoError(t, err)
			last := enrollments[len(enrollments)-1]
			assert.Equal(t, tt.wantOpen, last.IsOpen())
			if tt.wantOpen {
				assert.Equal(t, tt.next, last.Status)
				assert.Equal(t, "summer break", last.Reason.String)
			}
		})
	}

	enrollments, err := svc.Enrollments(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 3)
	for _, e := range enrollments {
		assert.False(t, e.IsOpen())
	}
}

func TestService_ActiveProfile(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	svc := profile.NewService(st.Tx, st.Profiles)
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")

	_, err := svc.ActiveProfile(ctx, ahmed.ID, profile.ProgramMahad)
	assert.Equal(t, profile.ErrNotFound, err)

	old := time.Now().AddDate(-1, 0, 0)
	testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusWithdrawn, old)
	_, err = svc.ActiveProfile(ctx, ahmed.ID, profile.ProgramMahad)
	assert.Equal(t, profile.ErrNotFound, err)

	current := testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusOnLeave)
	got, err := svc.ActiveProfile(ctx, ahmed.ID, profile.ProgramMahad)
	require.NoError(t, err)
	assert.Equal(t, current.ID, got.ID)

	_, err = svc.ActiveProfile(ctx, ahmed.ID, profile.ProgramDugsi)
	assert.Equal(t, profile.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	svc := profile.NewService(st.Tx, st.Profiles)

	now := time.Now()
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "6125550001")
	amina := testutil.CreatePerson(t, st.Persons, "Amina", "Abdi", "amina@test.com", "6125550002")
	p1 := testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusEnrolled, now.Add(-2*time.Hour))
	p2 := testutil.CreateProfile(t, st.Profiles, amina.ID, profile.ProgramMahad, profile.StatusRegistered, now.Add(-1*time.Hour))
	p3 := testutil.CreateProfile(t, st.Profiles, amina.ID, profile.ProgramDugsi, profile.StatusWithdrawn, now)

	ids := func(profiles []profile.ProgramProfile) []string {
		res := make([]string, 0, len(profiles))
		for _, p := range profiles {
			res = append(res, p.ID)
		}
		return res
	}

	tests := []struct {
		name     string
		filter   profile.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all, newest first", want: []string{p3.ID, p2.ID, p1.ID}},
		{name: "oldest first", ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}}, want: []string{p1.ID, p2.ID, p3.ID}},
		{name: "program", filter: profile.QueryFilter{Program: "mahad"}, want: []string{p2.ID, p1.ID}},
		{name: "statuses", filter: profile.QueryFilter{Statuses: []profile.Status{"enrolled", "withdrawn"}}, want: []string{p3.ID, p1.ID}},
		{name: "person", filter: profile.QueryFilter{PersonID: amina.ID}, want: []string{p3.ID, p2.ID}},
		{name: "search name", filter: profile.QueryFilter{Search: " HASSAN "}, want: []string{p1.ID}},
		{name: "search email", filter: profile.QueryFilter{Search: "amina@"}, want: []string{p3.ID, p2.ID}},
		{name: "search phone", filter: profile.QueryFilter{Search: "0001"}, want: []string{p1.ID}},
		{name: "no match", filter: profile.QueryFilter{Search: "zzz"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			filter.Clean()
			got, err := svc.Query(ctx, &filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_Roster(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	svc := profile.NewService(st.Tx, st.Profiles)

	now := time.Now()
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "6125550001")
	fatima := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "", "6125550002")
	omar := testutil.CreatePerson(t, st.Persons, "Omar", "Ali", "omar@test.com", "")
	testutil.CreateRelationship(t, st.Siblings, ahmed.ID, fatima.ID)
	testutil.CreateProfile(t, st.Profiles, fatima.ID, profile.ProgramDugsi, profile.StatusEnrolled, now.Add(-time.Hour))
	testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramDugsi, profile.StatusRegistered, now)
	testutil.CreateProfile(t, st.Profiles, omar.ID, profile.ProgramDugsi, profile.StatusWithdrawn, now.Add(-2*time.Hour))

	rows, err := svc.Roster(ctx, profile.ProgramDugsi)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fatima Hassan", rows[0].Name())
	assert.Equal(t, "6125550002", rows[0].Phone)
	assert.Equal(t, 1, rows[0].SiblingCount)
	assert.Equal(t, "Ahmed Hassan", rows[1].Name())
	assert.Equal(t, "ahmed@test.com", rows[1].Email)

	_, err = svc.Roster(ctx, "QURAN")
	assert.IsType(t, &core.ValidationError{}, err)
}
