package duplicate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/tests"
)

func TestDetector_CheckDuplicate(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	detector := duplicate.NewDetector(person.NewService(st.Persons), profile.NewService(st.Tx, st.Profiles))

	registeredAt := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "6125550001", registeredAt)
	mahad := testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusEnrolled, registeredAt)
	fatima := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "6125550002")
	testutil.CreateProfile(t, st.Profiles, fatima.ID, profile.ProgramMahad, profile.StatusWithdrawn)

	tests := []struct {
		name         string
		email        string
		phone        string
		program      profile.Program
		wantPersonID string
		wantField    duplicate.Field
		wantActive   bool
		wantPhoneID  string
	}{
		{name: "no input", program: profile.ProgramMahad},
		{name: "unknown", email: "nobody@test.com", phone: "6125559999", program: profile.ProgramMahad},
		{name: "unusable phone", phone: "555-12", program: profile.ProgramMahad},
		{name: "email", email: "ahmed@test.com", program: profile.ProgramMahad, wantPersonID: ahmed.ID, wantField: duplicate.FieldEmail, wantActive: true},
		{name: "email case & whitespace", email: "  AHMED@Test.COM ", program: profile.ProgramMahad, wantPersonID: ahmed.ID, wantField: duplicate.FieldEmail, wantActive: true},
		{name: "phone formatting", phone: "+1 (612) 555-0001", program: profile.ProgramMahad, wantPersonID: ahmed.ID, wantField: duplicate.FieldPhone, wantActive: true},
		{name: "both", email: "ahmed@test.com", phone: "612.555.0001", program: profile.ProgramMahad, wantPersonID: ahmed.ID, wantField: duplicate.FieldBoth, wantActive: true},
		{name: "other program", email: "ahmed@test.com", program: profile.ProgramDugsi, wantPersonID: ahmed.ID, wantField: duplicate.FieldEmail},
		{name: "withdrawn is not active", email: "fatima@test.com", program: profile.ProgramMahad, wantPersonID: fatima.ID, wantField: duplicate.FieldEmail},
		{
			name:         "email wins over phone of another person",
			email:        "fatima@test.com",
			phone:        "6125550001",
			program:      profile.ProgramMahad,
			wantPersonID: fatima.ID,
			wantField:    duplicate.FieldEmail,
			wantPhoneID:  ahmed.ID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := detector.CheckDuplicate(ctx, tt.email, tt.phone, tt.program)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPersonID != "", res.IsDuplicate)
			assert.Equal(t, tt.wantField, res.DuplicateField)
			assert.Equal(t, tt.wantActive, res.HasActiveProfile)
			assert.Equal(t, tt.wantActive, res.Blocking())
			assert.Equal(t, tt.wantPhoneID, res.PhoneMatchPersonID)

			p, ok := res.Person()
			assert.Equal(t, res.IsDuplicate, ok)
			if !res.IsDuplicate {
				assert.Nil(t, res.ExistingPerson)
				return
			}
			assert.Equal(t, tt.wantPersonID, p.ID)
			require.NotNil(t, res.ExistingPerson)
			assert.Equal(t, tt.wantPersonID, res.ExistingPerson.ID)
			if tt.wantActive {
				require.NotNil(t, res.ActiveProfile)
				assert.Equal(t, mahad.ID, res.ActiveProfile.ID)
			} else {
				assert.Nil(t, res.ActiveProfile)
			}
		})
	}

	t.Run("existing person summary", func(t *testing.T) {
		res, err := detector.CheckDuplicate(ctx, "ahmed@test.com", "", profile.ProgramMahad)
		require.NoError(t, err)
		assert.Equal(t, &duplicate.ExistingPerson{
			ID:           ahmed.ID,
			Name:         "Ahmed Hassan",
			Email:        "ahmed@test.com",
			Phone:        "6125550001",
			RegisteredAt: "Mar 4, 2024",
		}, res.ExistingPerson)
		assert.Equal(t, "Enrolled", res.ActiveProfile.StatusLabel)
		assert.Equal(t, "Mar 4, 2024", res.ActiveProfile.CreatedAtLabel)
	})

	t.Run("no side effects", func(t *testing.T) {
		before, err := st.Profiles.QueryProfiles(ctx, &profile.QueryFilter{}, nil)
		require.NoError(t, err)
		_, err = detector.CheckDuplicate(ctx, "new@test.com", "6125557777", profile.ProgramDugsi)
		require.NoError(t, err)
		after, err := st.Profiles.QueryProfiles(ctx, &profile.QueryFilter{}, nil)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestDetector_matchesWhatsApp(t *testing.T) {
	ctx := context.Background()
	st := testutil.PrepareStores(t)
	personSvc := person.NewService(st.Persons)
	detector := duplicate.NewDetector(personSvc, profile.NewService(st.Tx, st.Profiles))

	amina, err := personSvc.CreatePersonWithContact(ctx, person.NewPerson{
		FirstName: "Amina",
		LastName:  "Abdi",
		Phone:     "6125550010",
		WhatsApp:  "6125550011",
	})
	require.NoError(t, err)

	res, err := detector.CheckDuplicate(ctx, "", "612-555-0011", profile.ProgramDugsi)
	require.NoError(t, err)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, amina.ID, res.ExistingPerson.ID)
	assert.Equal(t, "6125550010", res.ExistingPerson.Phone)
	assert.False(t, res.Blocking())
}
