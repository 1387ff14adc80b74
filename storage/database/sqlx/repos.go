// Package sqlxrepos implements the domain Repository interfaces on
// PostgreSQL. Queries run through whatever core.DBExecutor the service
// hands over (the pool by default, a transaction when one is in flight).
package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Nareshb78/Assignment-Portal/core"
)

// whereBuilder accumulates WHERE conditions with positional args. Condition
// strings carry a single %d verb for the arg's position.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (wb *whereBuilder) add(cond string, arg interface{}) {
	wb.args = append(wb.args, arg)
	wb.conds = append(wb.conds, fmt.Sprintf(cond, len(wb.args)))
}

func (wb *whereBuilder) in(col string, vals []string) {
	if len(vals) == 0 {
		wb.conds = append(wb.conds, "FALSE")
		return
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		wb.args = append(wb.args, v)
		ph[i] = fmt.Sprintf("$%d", len(wb.args))
	}
	wb.conds = append(wb.conds, col+" IN ("+strings.Join(ph, ",")+")")
}

func (wb *whereBuilder) notIn(col string, vals []string) {
	if len(vals) == 0 {
		return
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		wb.args = append(wb.args, v)
		ph[i] = fmt.Sprintf("$%d", len(wb.args))
	}
	wb.conds = append(wb.conds, col+" NOT IN ("+strings.Join(ph, ",")+")")
}

func (wb *whereBuilder) clause() string {
	if len(wb.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(wb.conds, " AND ")
}

// next returns the positional placeholder for one more arg.
func (wb *whereBuilder) next(arg interface{}) string {
	wb.args = append(wb.args, arg)
	return fmt.Sprintf("$%d", len(wb.args))
}

func orderClause(ordering []core.DBOrdering, dflt string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + dflt
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func limitClause(wb *whereBuilder, offset, limit int) string {
	var c string
	if limit > 0 {
		c += " LIMIT " + wb.next(limit)
	}
	if offset > 0 {
		c += " OFFSET " + wb.next(offset)
	}
	return c
}

// queryAll runs query and scans every row into dest (pointer to a slice of
// db-tagged structs).
func queryAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

func count(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var n int
	err := exec.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func exists(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (bool, error) {
	var found bool
	err := exec.QueryRowContext(ctx, "SELECT EXISTS ("+query+")", args...).Scan(&found)
	return found, err
}
