// Package inmem holds map-backed implementations of the domain Repository
// interfaces, used by the test suites in place of PostgreSQL.
package inmem

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/comment"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

type DB struct {
	unsupportedExecutor

	// one lock for the whole store; cross-table cascades stay consistent
	// and the data is test-scale anyway
	mu sync.RWMutex

	users       map[string]*user.User
	classes     map[string]*classroom.Class
	assignments map[string]*assignment.Assignment
	submissions map[string]*submission.Submission
	comments    map[string]*comment.Comment
}

var _ core.DB = (*DB)(nil)

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		classes:     make(map[string]*classroom.Class),
		assignments: make(map[string]*assignment.Assignment),
		submissions: make(map[string]*submission.Submission),
		comments:    make(map[string]*comment.Comment),
	}
}

// Reset empties the store so test cases start from a clean slate.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.classes = make(map[string]*classroom.Class)
	db.assignments = make(map[string]*assignment.Assignment)
	db.submissions = make(map[string]*submission.Submission)
	db.comments = make(map[string]*comment.Comment)
}

// noopTx satisfies core.DBTransactor; the in-memory repos apply writes
// immediately so commit and rollback have nothing to do.
type noopTx struct {
	unsupportedExecutor
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

func (db *DB) Begin() (core.DBTransactor, error) {
	return noopTx{}, nil
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

// unsupportedExecutor backs the raw-SQL surface of core.DB; the in-memory
// repos never reach for it.
type unsupportedExecutor struct{}

func (unsupportedExecutor) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (unsupportedExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (unsupportedExecutor) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (unsupportedExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (unsupportedExecutor) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

func (unsupportedExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

var errNoSQL = sql.ErrConnDone
