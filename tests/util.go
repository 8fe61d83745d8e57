package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
	dummydb "github.com/mustafamuse/irshad-center-sub008/storage/database/dummy"
)

// Stores bundles the in-memory repositories of one test database.
type Stores struct {
	DB       *dummydb.DB
	Tx       core.Transactor
	Persons  person.Repository
	Profiles profile.Repository
	Siblings sibling.Repository
}

// PrepareStores opens an empty in-memory database.
func PrepareStores(t *testing.T) Stores {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("PrepareStores() failed: %v", err)
	}
	return Stores{
		DB:       db,
		Tx:       dummydb.NewTransactor(db),
		Persons:  dummydb.NewPersonRepository(db),
		Profiles: dummydb.NewProfileRepository(db),
		Siblings: dummydb.NewSiblingRepository(db),
	}
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)
	return validate, translator
}

// CreatePerson stores a person with primary email and phone contacts. Values must already be normalized.
func CreatePerson(t *testing.T, repo person.Repository, first, last, email, phone string, createdAt ...time.Time) person.Person {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := person.Person{
		FirstName: first,
		LastName:  last,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if email != "" {
		p.Contacts = append(p.Contacts, contact(person.ContactEmail, email, tstamp))
	}
	if phone != "" {
		p.Contacts = append(p.Contacts, contact(person.ContactPhone, phone, tstamp))
	}

	p, err := repo.CreatePerson(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePerson() failed: %v", err)
	}
	return p
}

func contact(kind person.ContactKind, value string, createdAt time.Time) person.ContactPoint {
	return person.ContactPoint{
		Kind:      kind,
		Value:     value,
		IsPrimary: true,
		State:     person.ContactActive,
		CreatedAt: createdAt,
	}
}

// CreateProfile stores a program profile for personID in the given status.
func CreateProfile(
	t *testing.T,
	repo profile.Repository,
	personID string,
	program profile.Program,
	status profile.Status,
	createdAt ...time.Time,
) profile.ProgramProfile {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p, err := repo.CreateProfile(context.Background(), profile.ProgramProfile{
		PersonID:  personID,
		Program:   program,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

// CreateRelationship stores an active sibling relationship between a and b.
func CreateRelationship(t *testing.T, repo sibling.Repository, a, b string) sibling.Relationship {
	p1, p2 := sibling.CanonicalPair(a, b)
	now := time.Now().UTC()
	rel, err := repo.CreateRelationship(context.Background(), sibling.Relationship{
		Person1ID: p1,
		Person2ID: p2,
		State:     sibling.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRelationship() failed: %v", err)
	}
	return rel
}
