package database

import (
	"context"
	"database/sql"

	"github.com/Nareshb78/Assignment-Portal/core"
)

type appDB struct {
	*sql.DB
}

var _ core.DB = (*appDB)(nil)

// WrapDB adapts a *sql.DB to core.DB so service transactions are started
// against the interface rather than the concrete pool.
func WrapDB(db *sql.DB) core.DB {
	return appDB{DB: db}
}

func (d appDB) Begin() (core.DBTransactor, error) {
	return d.DB.Begin()
}

func (d appDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return d.DB.BeginTx(ctx, opts)
}
