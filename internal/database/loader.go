package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/wikietl/internal/recordset"
	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// PersistenceError reports a failed database operation.
type PersistenceError struct {
	Op    string // open, validate, begin, drop, create, insert, commit
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("database %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("database %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Loader writes record sets into tables.
type Loader struct {
	db      *sql.DB
	dialect sqlutil.Dialect
}

// NewLoader creates a Loader over an open connection.
func NewLoader(db *sql.DB, dialect sqlutil.Dialect) *Loader {
	return &Loader{db: db, dialect: dialect}
}

// Replace drops table if it exists, recreates it with the columns of rs and
// inserts every row. Float columns become the dialect's floating-point type,
// text columns become TEXT, and missing values are stored as NULL. It returns
// the number of rows inserted.
//
// On SQLite the whole replacement is one transaction. MySQL commits DDL
// implicitly, so there only the inserts are transactional.
func (l *Loader) Replace(ctx context.Context, table string, rs *recordset.RecordSet) (n int, err error) {
	quotedTable, err := l.dialect.QuoteIdentifierSafe(table)
	if err != nil {
		return 0, &PersistenceError{Op: "validate", Table: table, Err: err}
	}

	cols := rs.Schema().Columns()
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		q, err := l.dialect.QuoteIdentifierSafe(c.Name)
		if err != nil {
			return 0, &PersistenceError{Op: "validate", Table: table, Err: err}
		}
		names[i] = q
		defs[i] = q + " " + l.columnType(c.Kind)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Op: "begin", Table: table, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quotedTable); err != nil {
		return 0, &PersistenceError{Op: "drop", Table: table, Err: err}
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", "))
	if _, err = tx.ExecContext(ctx, createSQL); err != nil {
		return 0, &PersistenceError{Op: "create", Table: table, Err: err}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quotedTable, strings.Join(names, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, &PersistenceError{Op: "insert", Table: table, Err: err}
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for i := 0; i < rs.Len(); i++ {
		for j, v := range rs.Row(i) {
			args[j] = sqlArg(v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, &PersistenceError{Op: "insert", Table: table, Err: fmt.Errorf("row %d: %w", i, err)}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, &PersistenceError{Op: "commit", Table: table, Err: err}
	}
	return rs.Len(), nil
}

func (l *Loader) columnType(k recordset.Kind) string {
	if k == recordset.Float {
		return l.dialect.FloatType()
	}
	return l.dialect.TextType()
}

func sqlArg(v recordset.Value) interface{} {
	if v.IsMissing() {
		return nil
	}
	if f, ok := v.Float(); ok {
		return f
	}
	return v.Text()
}
