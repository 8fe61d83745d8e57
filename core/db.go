package core

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	// Repositories accept an optional trailing DBExecutor so that services can run them inside a transaction.
	DBExecutor interface {
		sqlx.ExtContext
	}

	// Transactor runs fn inside one atomic unit of work.
	// fn receives the executor repositories must use; the work is committed when fn returns nil
	// and rolled back otherwise (including on panic).
	Transactor interface {
		WithTransaction(ctx context.Context, fn func(exec DBExecutor) error) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

var savepointNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Savepoint runs fn under a SAVEPOINT when exec is a transaction, so that a failing statement inside fn
// only rolls back fn's own work instead of aborting the whole transaction.
// Without a transaction fn is simply called.
func Savepoint(ctx context.Context, exec DBExecutor, name string, fn func() error) error {
	tx, ok := exec.(*sqlx.Tx)
	if !ok || tx == nil {
		return fn()
	}
	if !savepointNameRegex.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "creating savepoint")
	}
	if fnErr := fn(); fnErr != nil {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return errors.Wrapf(err, "rolling back to savepoint after: %v", fnErr)
		}
		return fnErr
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "releasing savepoint")
	}
	return nil
}
