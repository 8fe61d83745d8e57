package sibling

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

var (
	// errors
	ErrRelationshipNotFound = errors.New("sibling relationship not found")
	ErrPersonNotFound       = errors.New("primary person not found")

	reasonMissingID       = "missing identifier"
	reasonPersonNotFound  = "person not found"
	reasonProfileNotFound = "profile not found"
)

// nowFunc is mockable
var nowFunc = time.Now

type (
	Repository interface {
		// GetRelationship returns the edge of the canonical pair in any state, or ErrRelationshipNotFound.
		GetRelationship(ctx context.Context, person1ID, person2ID string, exec ...core.DBExecutor) (Relationship, error)
		CreateRelationship(ctx context.Context, rel Relationship, exec ...core.DBExecutor) (Relationship, error)
		UpdateRelationship(ctx context.Context, rel Relationship, exec ...core.DBExecutor) error
		// QuerySiblingIDs returns the persons linked to personID by an active edge.
		QuerySiblingIDs(ctx context.Context, personID string, exec ...core.DBExecutor) ([]string, error)
	}

	PersonFinder interface {
		GetPerson(ctx context.Context, id string, exec ...core.DBExecutor) (person.Person, error)
	}

	ProfileFinder interface {
		GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (profile.ProgramProfile, error)
	}

	Linker struct {
		repo     Repository
		persons  PersonFinder
		profiles ProfileFinder
	}

	// target is one link request: ref is what the caller passed, personID what it resolves to.
	target struct {
		ref      string
		personID string
		resolve  func(ctx context.Context, exec ...core.DBExecutor) (string, error)
	}

	outcome int
)

const (
	outcomeAdded outcome = iota
	outcomeSkipped
)

func NewLinker(repo Repository, persons PersonFinder, profiles ProfileFinder) *Linker {
	return &Linker{repo: repo, persons: persons, profiles: profiles}
}

// LinkSiblings links primaryPersonID to every person of siblingPersonIDs.
// Each pair is attempted independently: a failing pair is reported in the result and does not stop the others.
// Run it with the caller's transaction as exec to have it roll back with the surrounding work.
func (l *Linker) LinkSiblings(ctx context.Context, primaryPersonID string, siblingPersonIDs []string, note string, exec ...core.DBExecutor) (LinkResult, error) {
	targets := make([]target, 0, len(siblingPersonIDs))
	for _, id := range siblingPersonIDs {
		targets = append(targets, target{ref: id, personID: normalize.ID(id)})
	}
	return l.link(ctx, primaryPersonID, targets, note, exec...)
}

// LinkProfiles is LinkSiblings for callers holding program profile IDs: each profile is resolved to its person first.
// Unknown profiles count as failed.
func (l *Linker) LinkProfiles(ctx context.Context, primaryPersonID string, siblingProfileIDs []string, note string, exec ...core.DBExecutor) (LinkResult, error) {
	targets := make([]target, 0, len(siblingProfileIDs))
	for _, id := range siblingProfileIDs {
		profileID := normalize.ID(id)
		targets = append(targets, target{
			ref: id,
			resolve: func(ctx context.Context, exec ...core.DBExecutor) (string, error) {
				if profileID == "" {
					return "", nil
				}
				p, err := l.profiles.GetProfile(ctx, profileID, exec...)
				if err != nil {
					return "", err
				}
				return p.PersonID, nil
			},
		})
	}
	return l.link(ctx, primaryPersonID, targets, note, exec...)
}

func (l *Linker) link(ctx context.Context, primaryPersonID string, targets []target, note string, exec ...core.DBExecutor) (LinkResult, error) {
	var res LinkResult
	if len(targets) == 0 {
		return res, nil
	}

	primaryPersonID = normalize.ID(primaryPersonID)
	if _, err := l.persons.GetPerson(ctx, primaryPersonID, exec...); err != nil {
		if errors.Cause(err) == person.ErrNotFound {
			return res, ErrPersonNotFound
		}
		return res, errors.Wrap(err, "loading primary person")
	}
	note = normalize.Note(note)

	seen := make(map[string]bool, len(targets))
	for i, tgt := range targets {
		var out outcome
		err := core.Savepoint(ctx, firstExec(exec), fmt.Sprintf("sibling_link_%d", i), func() error {
			personID := tgt.personID
			if tgt.resolve != nil {
				id, err := tgt.resolve(ctx, exec...)
				if err != nil {
					return err
				}
				personID = normalize.ID(id)
			}
			if personID == "" {
				return errMissingID
			}
			if personID == primaryPersonID || seen[personID] {
				out = outcomeSkipped
				return nil
			}

			var err error
			if out, err = l.linkPair(ctx, primaryPersonID, personID, note, exec...); err != nil {
				return err
			}
			// only a linked or already active pair counts as seen; a failed target is tried again
			seen[personID] = true
			return nil
		})
		if err != nil {
			res.fail(tgt.ref, failureReason(err))
			continue
		}
		switch out {
		case outcomeAdded:
			res.Added++
		case outcomeSkipped:
			res.Skipped++
		}
	}
	return res, nil
}

var errMissingID = errors.New(reasonMissingID)

func failureReason(err error) string {
	switch errors.Cause(err) {
	case errMissingID:
		return reasonMissingID
	case person.ErrNotFound:
		return reasonPersonNotFound
	case profile.ErrNotFound:
		return reasonProfileNotFound
	}
	return err.Error()
}

// linkPair creates the edge, reactivates an inactive one, or skips an active one.
func (l *Linker) linkPair(ctx context.Context, a, b, note string, exec ...core.DBExecutor) (outcome, error) {
	if _, err := l.persons.GetPerson(ctx, b, exec...); err != nil {
		return 0, err
	}

	p1, p2 := CanonicalPair(a, b)
	now := nowFunc().UTC()
	rel, err := l.repo.GetRelationship(ctx, p1, p2, exec...)
	switch {
	case err == nil && rel.IsActive():
		return outcomeSkipped, nil
	case err == nil:
		rel.State = StateActive
		rel.UpdatedAt = now
		if note != "" {
			rel.Note = null.StringFrom(note)
		}
		if err = l.repo.UpdateRelationship(ctx, rel, exec...); err != nil {
			return 0, errors.Wrap(err, "reactivating sibling relationship")
		}
		return outcomeAdded, nil
	case errors.Cause(err) == ErrRelationshipNotFound:
		if _, err = l.repo.CreateRelationship(ctx, Relationship{
			Person1ID: p1,
			Person2ID: p2,
			State:     StateActive,
			Note:      null.NewString(note, note != ""),
			CreatedAt: now,
			UpdatedAt: now,
		}, exec...); err != nil {
			return 0, errors.Wrap(err, "creating sibling relationship")
		}
		return outcomeAdded, nil
	default:
		return 0, errors.Wrap(err, "getting sibling relationship")
	}
}

// UnlinkSiblings deactivates the edge between personA and personB.
// It returns ErrRelationshipNotFound when the two are not actively linked.
func (l *Linker) UnlinkSiblings(ctx context.Context, personA, personB string, exec ...core.DBExecutor) error {
	a, b := normalize.ID(personA), normalize.ID(personB)
	if a == "" || b == "" || a == b {
		return ErrRelationshipNotFound
	}

	p1, p2 := CanonicalPair(a, b)
	rel, err := l.repo.GetRelationship(ctx, p1, p2, exec...)
	if err != nil {
		if errors.Cause(err) == ErrRelationshipNotFound {
			return ErrRelationshipNotFound
		}
		return errors.Wrap(err, "getting sibling relationship")
	}
	if !rel.IsActive() {
		return ErrRelationshipNotFound
	}

	rel.State = StateInactive
	rel.UpdatedAt = nowFunc().UTC()
	return errors.Wrap(l.repo.UpdateRelationship(ctx, rel, exec...), "deactivating sibling relationship")
}

// AreSiblings reports whether an active edge links personA and personB, in either argument order.
func (l *Linker) AreSiblings(ctx context.Context, personA, personB string) (bool, error) {
	a, b := normalize.ID(personA), normalize.ID(personB)
	if a == "" || b == "" || a == b {
		return false, nil
	}

	p1, p2 := CanonicalPair(a, b)
	rel, err := l.repo.GetRelationship(ctx, p1, p2)
	if err != nil {
		if errors.Cause(err) == ErrRelationshipNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting sibling relationship")
	}
	return rel.IsActive(), nil
}

// ListSiblings returns the persons actively linked to personID.
func (l *Linker) ListSiblings(ctx context.Context, personID string) ([]person.Person, error) {
	personID = normalize.ID(personID)
	if _, err := l.persons.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	ids, err := l.repo.QuerySiblingIDs(ctx, personID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sibling ids")
	}

	siblings := make([]person.Person, 0, len(ids))
	for _, id := range ids {
		p, err := l.persons.GetPerson(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "loading sibling %s", id)
		}
		siblings = append(siblings, p)
	}
	return siblings, nil
}

func firstExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return nil
}
