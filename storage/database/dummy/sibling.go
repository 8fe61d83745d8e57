package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

var errPairExists = errors.New("sibling relationship already exists for this pair")

type siblingRepository struct {
	db *DB
}

var _ sibling.Repository = (*siblingRepository)(nil) // interface compliance check

func NewSiblingRepository(db *DB) sibling.Repository {
	return &siblingRepository{db: db}
}

func (repo *siblingRepository) GetRelationship(_ context.Context, person1ID, person2ID string, _ ...core.DBExecutor) (sibling.Relationship, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rel := range repo.db.sibling {
		if rel.Person1ID == person1ID && rel.Person2ID == person2ID {
			return rel, nil
		}
	}
	return sibling.Relationship{}, sibling.ErrRelationshipNotFound
}

func (repo *siblingRepository) CreateRelationship(_ context.Context, rel sibling.Relationship, exec ...core.DBExecutor) (sibling.Relationship, error) {
	defer repo.db.lockWrite(exec)()

	// same checks as the table constraints
	if rel.Person1ID >= rel.Person2ID {
		return sibling.Relationship{}, errors.New("sibling relationship pair is not ordered")
	}
	for _, id := range []string{rel.Person1ID, rel.Person2ID} {
		if _, ok := repo.db.person[id]; !ok {
			return sibling.Relationship{}, person.ErrNotFound
		}
	}
	for _, existing := range repo.db.sibling {
		if existing.Person1ID == rel.Person1ID && existing.Person2ID == rel.Person2ID {
			return sibling.Relationship{}, errPairExists
		}
	}

	rel.ID = uuid.New().String()
	repo.db.sibling[rel.ID] = rel
	return rel, nil
}

func (repo *siblingRepository) UpdateRelationship(_ context.Context, rel sibling.Relationship, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	existing, ok := repo.db.sibling[rel.ID]
	if !ok {
		return sibling.ErrRelationshipNotFound
	}
	existing.State = rel.State
	existing.Note = rel.Note
	existing.UpdatedAt = rel.UpdatedAt
	repo.db.sibling[rel.ID] = existing
	return nil
}

func (repo *siblingRepository) QuerySiblingIDs(_ context.Context, personID string, _ ...core.DBExecutor) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rels := make([]sibling.Relationship, 0)
	for _, rel := range repo.db.sibling {
		if rel.IsActive() && (rel.Person1ID == personID || rel.Person2ID == personID) {
			rels = append(rels, rel)
		}
	}
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].CreatedAt.Equal(rels[j].CreatedAt) {
			return rels[i].ID < rels[j].ID
		}
		return rels[i].CreatedAt.Before(rels[j].CreatedAt)
	})

	ids := make([]string, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.Other(personID))
	}
	return ids, nil
}
