package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
)

type personRepository struct {
	db *DB
}

var _ person.Repository = (*personRepository)(nil) // interface compliance check

func NewPersonRepository(db *DB) person.Repository {
	return &personRepository{db: db}
}

// contacts must be called with the lock held.
func (repo *personRepository) contacts(personID string) []person.ContactPoint {
	contacts := make([]person.ContactPoint, 0)
	for _, c := range repo.db.contactPoint {
		if c.PersonID == personID {
			contacts = append(contacts, c)
		}
	}
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID < contacts[j].ID
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
	return contacts
}

func (repo *personRepository) get(id string) (person.Person, bool) {
	p, ok := repo.db.person[id]
	if !ok {
		return person.Person{}, false
	}
	p.Contacts = repo.contacts(id)
	return p, true
}

func (repo *personRepository) CreatePerson(_ context.Context, p person.Person, exec ...core.DBExecutor) (person.Person, error) {
	defer repo.db.lockWrite(exec)()

	// partial unique index on (kind, value)
	for _, c := range p.Contacts {
		if c.Kind == person.ContactWhatsApp {
			continue
		}
		for _, existing := range repo.db.contactPoint {
			if existing.Kind == c.Kind && existing.Value == c.Value {
				return person.Person{}, person.ErrContactExists
			}
		}
	}

	p.ID = uuid.New().String()
	contacts := p.Contacts
	p.Contacts = nil
	repo.db.person[p.ID] = p

	for i := range contacts {
		contacts[i].ID = uuid.New().String()
		contacts[i].PersonID = p.ID
		repo.db.contactPoint[contacts[i].ID] = contacts[i]
	}
	p.Contacts = contacts
	return p, nil
}

func (repo *personRepository) GetPerson(_ context.Context, id string, _ ...core.DBExecutor) (person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.get(id); ok {
		return p, nil
	}
	return person.Person{}, person.ErrNotFound
}

func (repo *personRepository) FindByContact(_ context.Context, value string, kinds []person.ContactKind, _ ...core.DBExecutor) (person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// oldest matching contact wins, as in SQL
	var (
		match person.ContactPoint
		found bool
	)
	for _, c := range repo.db.contactPoint {
		if c.Value != value || !c.IsActive() || !kindIn(c.Kind, kinds) {
			continue
		}
		if !found || c.CreatedAt.Before(match.CreatedAt) || (c.CreatedAt.Equal(match.CreatedAt) && c.ID < match.ID) {
			match, found = c, true
		}
	}
	if found {
		if p, ok := repo.get(match.PersonID); ok {
			return p, nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func kindIn(k person.ContactKind, kinds []person.ContactKind) bool {
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
