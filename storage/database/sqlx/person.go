package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
)

const contactKindValueKey = "contact_point_kind_value_key"

type (
	personRow struct {
		ID          string    `db:"id"`
		FirstName   string    `db:"first_name"`
		LastName    string    `db:"last_name"`
		DateOfBirth null.Time `db:"date_of_birth"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	contactRow struct {
		ID        string    `db:"id"`
		PersonID  string    `db:"person_id"`
		Kind      string    `db:"kind"`
		Value     string    `db:"value"`
		IsPrimary bool      `db:"is_primary"`
		State     string    `db:"state"`
		CreatedAt time.Time `db:"created_at"`
	}

	personRepository struct {
		repository
	}
)

var _ person.Repository = (*personRepository)(nil) // interface compliance check

func NewPersonRepository(exec core.DBExecutor) person.Repository {
	return &personRepository{repository{exec: exec}}
}

func (row personRow) toPerson(contacts []contactRow) person.Person {
	p := person.Person{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		DateOfBirth: row.DateOfBirth,
		Contacts:    make([]person.ContactPoint, 0, len(contacts)),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	for _, c := range contacts {
		p.Contacts = append(p.Contacts, person.ContactPoint{
			ID:        c.ID,
			PersonID:  c.PersonID,
			Kind:      person.ContactKind(c.Kind),
			Value:     c.Value,
			IsPrimary: c.IsPrimary,
			State:     person.ContactState(c.State),
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	return p
}

// CreatePerson must run inside a transaction: the person and its contacts are separate statements.
func (repo personRepository) CreatePerson(ctx context.Context, p person.Person, exec ...core.DBExecutor) (person.Person, error) {
	db := repo.getExec(exec)
	p.ID = newID()

	const insertPerson = `
		INSERT INTO person (id, first_name, last_name, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := db.ExecContext(ctx, insertPerson, p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.CreatedAt, p.UpdatedAt); err != nil {
		return person.Person{}, errors.Wrap(err, "inserting person")
	}

	const insertContact = `
		INSERT INTO contact_point (id, person_id, kind, value, is_primary, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range p.Contacts {
		c := &p.Contacts[i]
		c.ID = newID()
		c.PersonID = p.ID
		if _, err := db.ExecContext(ctx, insertContact, c.ID, c.PersonID, c.Kind, c.Value, c.IsPrimary, c.State, c.CreatedAt); err != nil {
			if isUniqueViolation(err, contactKindValueKey) {
				return person.Person{}, person.ErrContactExists
			}
			return person.Person{}, errors.Wrap(err, "inserting contact point")
		}
	}
	return p, nil
}

func (repo personRepository) GetPerson(ctx context.Context, id string, exec ...core.DBExecutor) (person.Person, error) {
	if !validID(id) {
		return person.Person{}, person.ErrNotFound
	}
	db := repo.getExec(exec)

	var row personRow
	const q = `SELECT id, first_name, last_name, date_of_birth, created_at, updated_at FROM person WHERE id = $1`
	if err := sqlx.GetContext(ctx, db, &row, q, id); err != nil {
		return person.Person{}, trapNoRowsErr(err, person.ErrNotFound, "getting person")
	}

	var contacts []contactRow
	const qc = `
		SELECT id, person_id, kind, value, is_primary, state, created_at
		FROM contact_point WHERE person_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, db, &contacts, qc, id); err != nil {
		return person.Person{}, errors.Wrap(err, "getting contact points")
	}
	return row.toPerson(contacts), nil
}

// FindByContact resolves the oldest active contact matching value and kinds.
func (repo personRepository) FindByContact(ctx context.Context, value string, kinds []person.ContactKind, exec ...core.DBExecutor) (person.Person, error) {
	strKinds := make([]string, 0, len(kinds))
	for _, k := range kinds {
		strKinds = append(strKinds, string(k))
	}

	var personID string
	const q = `
		SELECT person_id FROM contact_point
		WHERE value = $1 AND kind = ANY($2) AND state = 'ACTIVE'
		ORDER BY created_at, id LIMIT 1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &personID, q, value, pq.Array(strKinds)); err != nil {
		return person.Person{}, trapNoRowsErr(err, person.ErrNotFound, "finding contact point")
	}
	return repo.GetPerson(ctx, personID, exec...)
}
