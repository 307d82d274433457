// Package sqlxrepos implements the core repositories on PostgreSQL through sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
)

const uniqueViolation = "23505"

// psql builds statements with postgres ($n) placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type DB struct {
	*sqlx.DB
}

func Wrap(db *sqlx.DB) *DB {
	return &DB{DB: db}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) selectBuilt(ctx context.Context, dest interface{}, query sq.Sqlizer) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return db.SelectContext(ctx, dest, stmt, args...)
}

func (db *DB) getBuilt(ctx context.Context, dest interface{}, query sq.Sqlizer) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return db.GetContext(ctx, dest, stmt, args...)
}

func (db *DB) execBuilt(ctx context.Context, query sq.Sqlizer) (sql.Result, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return db.ExecContext(ctx, stmt, args...)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

// inList matches column against values: nil means no condition, an empty list matches nothing.
func inList(column string, values []string) sq.Sqlizer {
	if values == nil {
		return nil
	}
	return sq.Eq{column: values}
}

// search is a case-insensitive substring match on any of columns.
func search(value string, columns ...string) sq.Sqlizer {
	if value == "" {
		return nil
	}
	pattern := "%" + escapeLike(value) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return or
}

// conds ANDs the non-nil parts.
func conds(parts ...sq.Sqlizer) sq.And {
	and := make(sq.And, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			and = append(and, p)
		}
	}
	return and
}

func orderBy(orderings ...core.DBOrdering) []string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return parts
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
