package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafamuse/irshad-center-sub008/core/person"
)

var (
	personCols  = []string{"id", "first_name", "last_name", "date_of_birth", "created_at", "updated_at"}
	contactCols = []string{"id", "person_id", "kind", "value", "is_primary", "state", "created_at"}
)

func newPerson(now time.Time) person.Person {
	return person.Person{
		FirstName: "Ahmed",
		LastName:  "Hassan",
		CreatedAt: now,
		UpdatedAt: now,
		Contacts: []person.ContactPoint{
			{Kind: person.ContactEmail, Value: "ahmed@test.com", IsPrimary: true, State: person.ContactActive, CreatedAt: now},
		},
	}
}

func TestPersonRepository_CreatePerson(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("ok", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec(`INSERT INTO person`).
			WithArgs(sqlmock.AnyArg(), "Ahmed", "Hassan", nil, now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO contact_point`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "EMAIL", "ahmed@test.com", true, "ACTIVE", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		p, err := NewPersonRepository(db).CreatePerson(ctx, newPerson(now))
		require.NoError(t, err)
		assert.True(t, validID(p.ID))
		require.Len(t, p.Contacts, 1)
		assert.Equal(t, p.ID, p.Contacts[0].PersonID)
		assert.True(t, validID(p.Contacts[0].ID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("contact exists", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec(`INSERT INTO person`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO contact_point`).
			WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: contactKindValueKey})

		_, err := NewPersonRepository(db).CreatePerson(ctx, newPerson(now))
		assert.Equal(t, person.ErrContactExists, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique violation", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec(`INSERT INTO person`).WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "person_pkey"})

		_, err := NewPersonRepository(db).CreatePerson(ctx, newPerson(now))
		assert.Error(t, err)
		assert.NotEqual(t, person.ErrContactExists, err)
	})
}

func TestPersonRepository_GetPerson(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	id := uuid.New().String()

	t.Run("malformed id", func(t *testing.T) {
		db, mock := setupMockDB(t)
		_, err := NewPersonRepository(db).GetPerson(ctx, "lol")
		assert.Equal(t, person.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM person WHERE id = \$1`).WithArgs(id).WillReturnError(sql.ErrNoRows)
		_, err := NewPersonRepository(db).GetPerson(ctx, id)
		assert.Equal(t, person.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with contacts", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM person WHERE id = \$1`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(personCols).AddRow(id, "Ahmed", "Hassan", nil, now, now))
		mock.ExpectQuery(`FROM contact_point WHERE person_id = \$1`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(contactCols).
				AddRow(uuid.New().String(), id, "EMAIL", "ahmed@test.com", true, "ACTIVE", now).
				AddRow(uuid.New().String(), id, "PHONE", "6125550001", true, "ACTIVE", now))

		p, err := NewPersonRepository(db).GetPerson(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ahmed Hassan", p.Name())
		assert.False(t, p.DateOfBirth.Valid)
		assert.Equal(t, "ahmed@test.com", p.PrimaryEmail())
		assert.Equal(t, "6125550001", p.PrimaryPhone())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPersonRepository_FindByContact(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	id := uuid.New().String()

	t.Run("not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT person_id FROM contact_point`).
			WithArgs("6125550001", "{\"PHONE\",\"WHATSAPP\"}").
			WillReturnRows(sqlmock.NewRows([]string{"person_id"}))

		_, err := NewPersonRepository(db).FindByContact(ctx, "6125550001", person.PhoneKinds)
		assert.Equal(t, person.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT person_id FROM contact_point`).
			WithArgs("ahmed@test.com", "{\"EMAIL\"}").
			WillReturnRows(sqlmock.NewRows([]string{"person_id"}).AddRow(id))
		mock.ExpectQuery(`FROM person WHERE id`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(personCols).AddRow(id, "Ahmed", "Hassan", now, now, now))
		mock.ExpectQuery(`FROM contact_point WHERE person_id`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(contactCols))

		p, err := NewPersonRepository(db).FindByContact(ctx, "ahmed@test.com", []person.ContactKind{person.ContactEmail})
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.True(t, p.DateOfBirth.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
