package tests

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mustafamuse/irshad-center-sub008/apps/api/echo"
	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
	"github.com/mustafamuse/irshad-center-sub008/tests"
)

func register(t *testing.T, f fixture, req RegistrationRequest) (int, registration.Result) {
	r, rec := newRequest(http.MethodPost, "/v1/registrations", marchallObj(t, req))
	f.app.ServeHTTP(rec, r)
	var res registration.Result
	decode(t, rec, &res)
	return rec.Code, res
}

func Test_registrationApi_register(t *testing.T) {
	f := setup(t)

	ahmed := RegistrationRequest{
		Program:     "mahad",
		FirstName:   "  ahmed ",
		LastName:    "HASSAN",
		DateOfBirth: "2008-05-01",
		Email:       "Ahmed@Test.com",
		Phone:       "(612) 555-0001",
	}

	code, res := register(t, f, ahmed)
	require.Equal(t, http.StatusCreated, code, res.Error)
	assert.True(t, res.Success)
	assert.Equal(t, "Ahmed Hassan", res.Name)
	assert.False(t, res.Attached)
	assert.NotEmpty(t, res.PersonID)

	p, err := f.st.Profiles.GetProfile(contextBG, res.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, profile.ProgramMahad, p.Program)
	assert.Equal(t, profile.StatusRegistered, p.Status)
	prsn, err := f.st.Persons.GetPerson(contextBG, res.PersonID)
	require.NoError(t, err)
	assert.True(t, prsn.DateOfBirth.Valid)
	assert.Equal(t, "ahmed@test.com", prsn.PrimaryEmail())

	t.Run("duplicate email", func(t *testing.T) {
		code, dup := register(t, f, RegistrationRequest{Program: "MAHAD", FirstName: "Ahmed", LastName: "Hassan", Email: "AHMED@test.com"})
		assert.Equal(t, http.StatusConflict, code)
		assert.False(t, dup.Success)
		assert.Equal(t, registration.FailureDuplicate, dup.Kind)
		assert.Equal(t, "email", dup.Field)
		assert.Contains(t, dup.Error, "a person with this email address is already registered for Mahad (Registered since ")
	})

	t.Run("duplicate phone", func(t *testing.T) {
		code, dup := register(t, f, RegistrationRequest{Program: "MAHAD", FirstName: "Ahmed", LastName: "Hassan", Phone: "1-612-555-0001"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "phone", dup.Field)
	})

	t.Run("other program attaches", func(t *testing.T) {
		code, att := register(t, f, RegistrationRequest{Program: "DUGSI", FirstName: "Ahmed", LastName: "Hassan", Email: "ahmed@test.com", Shift: "afternoon"})
		require.Equal(t, http.StatusCreated, code, att.Error)
		assert.True(t, att.Attached)
		assert.Equal(t, res.PersonID, att.PersonID)
		assert.NotEqual(t, res.ProfileID, att.ProfileID)
	})
}

func Test_registrationApi_register_validation(t *testing.T) {
	f := setup(t)

	fail := func(field, msg string) []byte {
		return marchallObj(t, registration.Result{Kind: registration.FailureValidation, Error: msg, Field: field})
	}
	post := func(req RegistrationRequest) []byte { return marchallObj(t, req) }

	tests := []httpTest{
		{
			name:     "unknown program",
			body:     post(RegistrationRequest{Program: "quran", FirstName: "Ahmed", LastName: "Hassan", Email: "ahmed@test.com"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("program", "unknown program"),
		},
		{
			name:     "missing first name",
			body:     post(RegistrationRequest{Program: "MAHAD", FirstName: "  ", LastName: "Hassan", Email: "ahmed@test.com"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("first_name", "this field is required"),
		},
		{
			name:     "no contact",
			body:     post(RegistrationRequest{Program: "MAHAD", FirstName: "Ahmed", LastName: "Hassan"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("email", "enter an email address or a phone number"),
		},
		{
			name:     "bad phone",
			body:     post(RegistrationRequest{Program: "MAHAD", FirstName: "Ahmed", LastName: "Hassan", Phone: "555-01"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("phone", "enter a valid 10 or 11 digit phone number"),
		},
		{
			name:     "bad date of birth",
			body:     post(RegistrationRequest{Program: "MAHAD", FirstName: "Ahmed", LastName: "Hassan", Email: "ahmed@test.com", DateOfBirth: "01/05/2008"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("date_of_birth", "enter a date as YYYY-MM-DD"),
		},
		{
			name:     "dugsi without shift",
			body:     post(RegistrationRequest{Program: "DUGSI", FirstName: "Fatima", LastName: "Hassan", Phone: "6125550002"}),
			wantCode: http.StatusBadRequest,
			wantData: fail("shift", "Dugsi students must be assigned a morning or afternoon shift"),
		},
		{
			name:     "malformed body",
			body:     []byte(`{"program": `),
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/registrations"
	}
	runHTTPTests(t, f.app, tests)

	got, err := f.st.Profiles.QueryProfiles(contextBG, &profile.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_registrationApi_register_siblings(t *testing.T) {
	f := setup(t)

	omar := testutil.CreatePerson(t, f.st.Persons, "Omar", "Hassan", "", "6125550003")
	omarProfile := testutil.CreateProfile(t, f.st.Profiles, omar.ID, profile.ProgramDugsi, profile.StatusEnrolled)

	code, res := register(t, f, RegistrationRequest{
		Program:           "DUGSI",
		FirstName:         "Fatima",
		LastName:          "Hassan",
		Phone:             "612.555.0002",
		Shift:             "MORNING",
		SiblingProfileIDs: []string{omarProfile.ID, "00000000-0000-0000-0000-000000000000"},
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	assert.Equal(t, 1, res.Siblings.Added)
	assert.Equal(t, 1, res.Siblings.Failed)
	require.Len(t, res.Siblings.Failures, 1)
	assert.Equal(t, "profile not found", res.Siblings.Failures[0].Reason)

	v := url.Values{"person_a": {omar.ID}, "person_b": {res.PersonID}}
	runHTTPTests(t, f.app, []httpTest{
		{
			name:     "linked",
			method:   http.MethodGet,
			path:     "/v1/siblings/check?" + v.Encode(),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, AreSiblingsResponse{AreSiblings: true}),
		},
	})
}

func Test_registrationApi_checkDuplicate(t *testing.T) {
	f := setup(t)

	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	ahmed := testutil.CreatePerson(t, f.st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "6125550001", created)
	testutil.CreateProfile(t, f.st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusEnrolled, created)

	path := func(program, email, phone string) string {
		v := make(url.Values)
		if program != "" {
			v.Add("program", program)
		}
		if email != "" {
			v.Add("email", email)
		}
		if phone != "" {
			v.Add("phone", phone)
		}
		return "/v1/duplicates?" + v.Encode()
	}

	runHTTPTests(t, f.app, []httpTest{
		{
			name:     "unknown program",
			method:   http.MethodGet,
			path:     path("quran", "ahmed@test.com", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"program": "unknown program"}),
		},
		{
			name:     "no contact",
			method:   http.MethodGet,
			path:     path("MAHAD", "", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "enter an email address or a phone number"}),
		},
		{
			name:     "no match",
			method:   http.MethodGet,
			path:     path("MAHAD", "nobody@test.com", "6125559999"),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, duplicate.Result{}),
		},
	})

	t.Run("active profile", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path("mahad", "", "612 555 0001"))
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res duplicate.Result
		decode(t, rec, &res)
		assert.True(t, res.IsDuplicate)
		assert.True(t, res.HasActiveProfile)
		assert.Equal(t, duplicate.FieldPhone, res.DuplicateField)
		require.NotNil(t, res.ExistingPerson)
		assert.Equal(t, ahmed.ID, res.ExistingPerson.ID)
		assert.Equal(t, "Ahmed Hassan", res.ExistingPerson.Name)
		require.NotNil(t, res.ActiveProfile)
		assert.Equal(t, "Enrolled", res.ActiveProfile.StatusLabel)
		assert.Equal(t, "Mar 4, 2024", res.ActiveProfile.CreatedAtLabel)
	})

	t.Run("no active profile", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path("DUGSI", "AHMED@test.com", ""))
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res duplicate.Result
		decode(t, rec, &res)
		assert.True(t, res.IsDuplicate)
		assert.False(t, res.HasActiveProfile)
		assert.Nil(t, res.ActiveProfile)
	})
}
