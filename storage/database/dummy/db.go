package dummydb

import (
	"context"
	"sync"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

type (
	// DB is an in-memory store. Transactions are serialized and roll back by restoring a snapshot of every table.
	// Writes outside a transaction wait for the running one to finish, so a rollback never drops them.
	// Reads outside a transaction may observe uncommitted writes.
	DB struct {
		sync.RWMutex
		txMu sync.Mutex
		tables
	}

	tables struct {
		person       map[string]person.Person // without contacts
		contactPoint map[string]person.ContactPoint
		profile      map[string]profile.ProgramProfile
		enrollment   map[string]profile.Enrollment
		sibling      map[string]sibling.Relationship
	}

	transactor struct {
		db *DB
	}

	// txExec marks repository calls made inside WithTransaction.
	txExec struct {
		core.DBExecutor
	}
)

var _ core.Transactor = (*transactor)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		tables: tables{
			person:       make(map[string]person.Person),
			contactPoint: make(map[string]person.ContactPoint),
			profile:      make(map[string]profile.ProgramProfile),
			enrollment:   make(map[string]profile.Enrollment),
			sibling:      make(map[string]sibling.Relationship),
		},
	}
	return db, nil
}

// Reset empties every table.
func (db *DB) Reset() {
	fresh, _ := Open()
	db.Lock()
	db.tables = fresh.tables
	db.Unlock()
}

func (t tables) snapshot() tables {
	return tables{
		person:       copyMap(t.person),
		contactPoint: copyMap(t.contactPoint),
		profile:      copyMap(t.profile),
		enrollment:   copyMap(t.enrollment),
		sibling:      copyMap(t.sibling),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// lockWrite takes the write lock for a repository mutation and returns its release.
func (db *DB) lockWrite(exec []core.DBExecutor) (unlock func()) {
	if !inTransaction(exec) {
		db.txMu.Lock()
	}
	db.Lock()
	return func() {
		db.Unlock()
		if !inTransaction(exec) {
			db.txMu.Unlock()
		}
	}
}

func inTransaction(exec []core.DBExecutor) bool {
	if len(exec) == 0 {
		return false
	}
	_, ok := exec[0].(*txExec)
	return ok
}

func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

// WithTransaction calls fn with an executor that only marks the transaction.
// Repositories of this package must receive it on every write made inside fn.
func (t *transactor) WithTransaction(ctx context.Context, fn func(exec core.DBExecutor) error) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	t.db.RLock()
	snap := t.db.tables.snapshot()
	t.db.RUnlock()

	rollback := func() {
		t.db.Lock()
		t.db.tables = snap
		t.db.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(&txExec{}); err != nil {
		rollback()
		return err
	}
	return nil
}
