package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

type (
	relationshipRow struct {
		ID        string      `db:"id"`
		Person1ID string      `db:"person1_id"`
		Person2ID string      `db:"person2_id"`
		State     string      `db:"state"`
		Note      null.String `db:"note"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	siblingRepository struct {
		repository
	}
)

var _ sibling.Repository = (*siblingRepository)(nil) // interface compliance check

func NewSiblingRepository(exec core.DBExecutor) sibling.Repository {
	return &siblingRepository{repository{exec: exec}}
}

func (row relationshipRow) toRelationship() sibling.Relationship {
	return sibling.Relationship{
		ID:        row.ID,
		Person1ID: row.Person1ID,
		Person2ID: row.Person2ID,
		State:     sibling.State(row.State),
		Note:      row.Note,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo siblingRepository) GetRelationship(ctx context.Context, person1ID, person2ID string, exec ...core.DBExecutor) (sibling.Relationship, error) {
	if !validID(person1ID) || !validID(person2ID) {
		return sibling.Relationship{}, sibling.ErrRelationshipNotFound
	}
	var row relationshipRow
	const q = `
		SELECT id, person1_id, person2_id, state, note, created_at, updated_at
		FROM sibling_relationship WHERE person1_id = $1 AND person2_id = $2`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, person1ID, person2ID); err != nil {
		return sibling.Relationship{}, trapNoRowsErr(err, sibling.ErrRelationshipNotFound, "getting sibling relationship")
	}
	return row.toRelationship(), nil
}

func (repo siblingRepository) CreateRelationship(ctx context.Context, rel sibling.Relationship, exec ...core.DBExecutor) (sibling.Relationship, error) {
	rel.ID = newID()
	const q = `
		INSERT INTO sibling_relationship (id, person1_id, person2_id, state, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, rel.ID, rel.Person1ID, rel.Person2ID, rel.State, rel.Note, rel.CreatedAt, rel.UpdatedAt); err != nil {
		switch {
		case isUniqueViolation(err, "sibling_relationship_pair_key"):
			return sibling.Relationship{}, errors.Wrap(err, "sibling relationship already exists for this pair")
		case isForeignKeyViolation(err):
			return sibling.Relationship{}, person.ErrNotFound
		}
		return sibling.Relationship{}, errors.Wrap(err, "inserting sibling relationship")
	}
	return rel, nil
}

func (repo siblingRepository) UpdateRelationship(ctx context.Context, rel sibling.Relationship, exec ...core.DBExecutor) error {
	const q = `UPDATE sibling_relationship SET state = $2, note = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, rel.ID, rel.State, rel.Note, rel.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating sibling relationship")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sibling.ErrRelationshipNotFound
	}
	return nil
}

func (repo siblingRepository) QuerySiblingIDs(ctx context.Context, personID string, exec ...core.DBExecutor) ([]string, error) {
	if !validID(personID) {
		return []string{}, nil
	}
	ids := make([]string, 0)
	const q = `
		SELECT CASE WHEN person1_id = $1 THEN person2_id ELSE person1_id END
		FROM sibling_relationship
		WHERE state = 'ACTIVE' AND (person1_id = $1 OR person2_id = $1)
		ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &ids, q, personID); err != nil {
		return nil, errors.Wrap(err, "querying sibling ids")
	}
	return ids, nil
}
