package sibling

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// State is the lifecycle of a relationship edge: NONE -> ACTIVE <-> INACTIVE.
// NONE is the absence of a row.
type State string

const (
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
)

// Relationship is an undirected edge between two persons, stored as a canonical pair (Person1ID < Person2ID).
type Relationship struct {
	ID        string      `json:"id"`
	Person1ID string      `json:"person1_id"`
	Person2ID string      `json:"person2_id"`
	State     State       `json:"state"`
	Note      null.String `json:"note"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

func (r Relationship) IsActive() bool { return r.State == StateActive }

// Other returns the person on the other side of the edge.
func (r Relationship) Other(personID string) string {
	if r.Person1ID == personID {
		return r.Person2ID
	}
	return r.Person1ID
}

// CanonicalPair orders two person IDs so that (a, b) and (b, a) identify the same edge.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// LinkFailure describes why one target could not be linked.
type LinkFailure struct {
	ID     string `json:"id"` // as given by the caller
	Reason string `json:"reason"`
}

// LinkResult aggregates per-target outcomes.
// Skipped counts self links, repeated targets and pairs that were already linked.
type LinkResult struct {
	Added    int           `json:"added"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Failures []LinkFailure `json:"failures,omitempty"`
}

func (lr *LinkResult) fail(id, reason string) {
	lr.Failed++
	lr.Failures = append(lr.Failures, LinkFailure{ID: id, Reason: reason})
}

// Merge adds other's counts to lr.
func (lr *LinkResult) Merge(other LinkResult) {
	lr.Added += other.Added
	lr.Failed += other.Failed
	lr.Skipped += other.Skipped
	lr.Failures = append(lr.Failures, other.Failures...)
}
