package sibling_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
	"github.com/mustafamuse/irshad-center-sub008/tests"
)

func setup(t *testing.T) (testutil.Stores, *sibling.Linker) {
	st := testutil.PrepareStores(t)
	return st, sibling.NewLinker(st.Siblings, st.Persons, st.Profiles)
}

func TestLinker_LinkSiblings(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	a := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	b := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")
	c := testutil.CreatePerson(t, st.Persons, "Omar", "Hassan", "", "6125550003")
	unknown := uuid.New().String()

	res, err := linker.LinkSiblings(ctx, a.ID, []string{b.ID, c.ID}, "")
	require.NoError(t, err)
	assert.Equal(t, sibling.LinkResult{Added: 2}, res)

	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, a.ID}, {a.ID, c.ID}, {c.ID, a.ID}} {
		ok, err := linker.AreSiblings(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok, "AreSiblings(%s, %s)", pair[0], pair[1])
	}
	ok, err := linker.AreSiblings(ctx, b.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, ok, "linking is not transitive")

	t.Run("reversed direction is skipped", func(t *testing.T) {
		res, err := linker.LinkSiblings(ctx, b.ID, []string{a.ID}, "")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{Skipped: 1}, res)
	})

	t.Run("self link and repeated target are skipped", func(t *testing.T) {
		d := testutil.CreatePerson(t, st.Persons, "Yusuf", "Hassan", "yusuf@test.com", "")
		res, err := linker.LinkSiblings(ctx, d.ID, []string{d.ID, b.ID, " " + b.ID + " "}, "")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{Added: 1, Skipped: 2}, res)
	})

	t.Run("partial failure", func(t *testing.T) {
		e := testutil.CreatePerson(t, st.Persons, "Khadija", "Ali", "khadija@test.com", "")
		res, err := linker.LinkSiblings(ctx, e.ID, []string{a.ID, unknown, "", "not-a-uuid"}, "")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Added)
		assert.Equal(t, 3, res.Failed)
		assert.Equal(t, 0, res.Skipped)
		assert.Equal(t, []sibling.LinkFailure{
			{ID: unknown, Reason: "person not found"},
			{ID: "", Reason: "missing identifier"},
			{ID: "not-a-uuid", Reason: "person not found"},
		}, res.Failures)

		ok, err := linker.AreSiblings(ctx, e.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("repeated failing target fails each time", func(t *testing.T) {
		res, err := linker.LinkSiblings(ctx, a.ID, []string{unknown, strings.ToUpper(unknown)}, "")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Failed)
		assert.Equal(t, 0, res.Skipped)
		assert.Equal(t, []sibling.LinkFailure{
			{ID: unknown, Reason: "person not found"},
			{ID: strings.ToUpper(unknown), Reason: "person not found"},
		}, res.Failures)
	})

	t.Run("uuid encodings name the same person", func(t *testing.T) {
		f := testutil.CreatePerson(t, st.Persons, "Maryam", "Hassan", "maryam@test.com", "")
		braced := "{" + strings.ToUpper(f.ID) + "}"
		res, err := linker.LinkSiblings(ctx, a.ID, []string{braced, "urn:uuid:" + f.ID, strings.ReplaceAll(f.ID, "-", "")}, "")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{Added: 1, Skipped: 2}, res)

		ok, err := linker.AreSiblings(ctx, braced, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown primary person", func(t *testing.T) {
		_, err := linker.LinkSiblings(ctx, unknown, []string{a.ID}, "")
		assert.Equal(t, sibling.ErrPersonNotFound, err)
	})

	t.Run("nothing to link", func(t *testing.T) {
		res, err := linker.LinkSiblings(ctx, unknown, nil, "")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{}, res)
	})
}

func TestLinker_noteIsSanitized(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	a := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	b := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")

	_, err := linker.LinkSiblings(ctx, a.ID, []string{b.ID}, `<b>twins</b><script>alert(1)</script>`)
	require.NoError(t, err)

	p1, p2 := sibling.CanonicalPair(a.ID, b.ID)
	rel, err := st.Siblings.GetRelationship(ctx, p1, p2)
	require.NoError(t, err)
	assert.Equal(t, "twins", rel.Note.String)
}

func TestLinker_UnlinkSiblings(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	a := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	b := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")
	c := testutil.CreatePerson(t, st.Persons, "Omar", "Hassan", "omar@test.com", "")
	testutil.CreateRelationship(t, st.Siblings, a.ID, b.ID)

	tests := []struct {
		name    string
		a, b    string
		wantErr error
	}{
		{name: "never linked", a: a.ID, b: c.ID, wantErr: sibling.ErrRelationshipNotFound},
		{name: "same person", a: a.ID, b: a.ID, wantErr: sibling.ErrRelationshipNotFound},
		{name: "missing id", a: a.ID, b: "", wantErr: sibling.ErrRelationshipNotFound},
		{name: "reversed order", a: b.ID, b: a.ID},
		{name: "already inactive", a: a.ID, b: b.ID, wantErr: sibling.ErrRelationshipNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := linker.UnlinkSiblings(ctx, tt.a, tt.b)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	ok, err := linker.AreSiblings(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("relink reactivates the edge", func(t *testing.T) {
		p1, p2 := sibling.CanonicalPair(a.ID, b.ID)
		before, err := st.Siblings.GetRelationship(ctx, p1, p2)
		require.NoError(t, err)

		res, err := linker.LinkSiblings(ctx, a.ID, []string{b.ID}, "back together")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{Added: 1}, res)

		after, err := st.Siblings.GetRelationship(ctx, p1, p2)
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
		assert.True(t, after.IsActive())
		assert.Equal(t, "back together", after.Note.String)
	})
}

func TestLinker_LinkProfiles(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	fatima := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")
	fatimaProfile := testutil.CreateProfile(t, st.Profiles, fatima.ID, profile.ProgramDugsi, profile.StatusEnrolled)
	ahmed := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	unknown := uuid.New().String()

	res, err := linker.LinkProfiles(ctx, ahmed.ID, []string{fatimaProfile.ID, unknown}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []sibling.LinkFailure{{ID: unknown, Reason: "profile not found"}}, res.Failures)

	siblings, err := linker.ListSiblings(ctx, fatima.ID)
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	assert.Equal(t, ahmed.ID, siblings[0].ID)

	t.Run("own profile is skipped", func(t *testing.T) {
		own := testutil.CreateProfile(t, st.Profiles, ahmed.ID, profile.ProgramMahad, profile.StatusRegistered)
		res, err := linker.LinkProfiles(ctx, ahmed.ID, []string{own.ID}, "")
		require.NoError(t, err)
		assert.Equal(t, sibling.LinkResult{Skipped: 1}, res)
	})
}

func TestLinker_ListSiblings(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	a := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	b := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")
	c := testutil.CreatePerson(t, st.Persons, "Omar", "Hassan", "omar@test.com", "")

	siblings, err := linker.ListSiblings(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, siblings)

	testutil.CreateRelationship(t, st.Siblings, a.ID, b.ID)
	testutil.CreateRelationship(t, st.Siblings, c.ID, a.ID)
	require.NoError(t, linker.UnlinkSiblings(ctx, a.ID, c.ID))

	siblings, err = linker.ListSiblings(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, siblings, 1)
	assert.Equal(t, "Fatima", siblings[0].FirstName)

	_, err = linker.ListSiblings(ctx, uuid.New().String())
	assert.Equal(t, person.ErrNotFound, err)
}

func TestLinker_rollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	st, linker := setup(t)

	a := testutil.CreatePerson(t, st.Persons, "Ahmed", "Hassan", "ahmed@test.com", "")
	b := testutil.CreatePerson(t, st.Persons, "Fatima", "Hassan", "fatima@test.com", "")

	errAbort := assert.AnError
	err := st.Tx.WithTransaction(ctx, func(exec core.DBExecutor) error {
		res, err := linker.LinkSiblings(ctx, a.ID, []string{b.ID}, "", exec)
		require.NoError(t, err)
		require.Equal(t, 1, res.Added)
		return errAbort
	})
	assert.Equal(t, errAbort, err)

	ok, err := linker.AreSiblings(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanonicalPair(t *testing.T) {
	p1, p2 := sibling.CanonicalPair("b", "a")
	assert.Equal(t, "a", p1)
	assert.Equal(t, "b", p2)
	q1, q2 := sibling.CanonicalPair("a", "b")
	assert.Equal(t, p1, q1)
	assert.Equal(t, p2, q2)
}

func TestLinkResult_Merge(t *testing.T) {
	res := sibling.LinkResult{Added: 1, Failures: []sibling.LinkFailure{{ID: "x", Reason: "person not found"}}, Failed: 1}
	res.Merge(sibling.LinkResult{Added: 2, Skipped: 1, Failed: 1, Failures: []sibling.LinkFailure{{ID: "y", Reason: "profile not found"}}})
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Failures, 2)
}
