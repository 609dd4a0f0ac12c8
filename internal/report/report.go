// Package report runs named read-only queries against the loaded table and
// prints their results.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/recordset"
	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// TablePlaceholder in a query is replaced with the quoted table name.
const TablePlaceholder = "{{table}}"

// NullText is how a NULL cell is printed.
const NullText = "NULL"

// NamedQuery is one report query.
type NamedQuery struct {
	Name string
	SQL  string
}

// FromConfig converts configured queries, keeping their order.
func FromConfig(qs []config.QueryConfig) []NamedQuery {
	out := make([]NamedQuery, len(qs))
	for i, q := range qs {
		out[i] = NamedQuery{Name: q.Name, SQL: q.SQL}
	}
	return out
}

// Expand substitutes quotedTable for every placeholder in the query.
func (q NamedQuery) Expand(quotedTable string) string {
	return strings.ReplaceAll(q.SQL, TablePlaceholder, quotedTable)
}

// QueryError reports a failed report query.
type QueryError struct {
	Name      string
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s (%s): %v", e.Name, e.Statement, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Result is the outcome of one query.
type Result struct {
	Name      string
	Statement string
	Columns   []string
	Rows      [][]recordset.Value
}

// Runner executes queries and prints each statement followed by its result
// table.
type Runner struct {
	out     io.Writer
	dialect sqlutil.Dialect
}

// NewRunner creates a Runner that prints to out.
func NewRunner(out io.Writer, dialect sqlutil.Dialect) *Runner {
	return &Runner{out: out, dialect: dialect}
}

// Run executes queries in order against table. It stops at the first failing
// query and returns the results gathered so far.
func (r *Runner) Run(ctx context.Context, db *sql.DB, tableName string, queries []NamedQuery) ([]Result, error) {
	quoted, err := r.dialect.QuoteIdentifierSafe(tableName)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(queries))
	for _, q := range queries {
		stmt := q.Expand(quoted)
		res, err := query(ctx, db, stmt)
		if err != nil {
			return results, &QueryError{Name: q.Name, Statement: stmt, Err: err}
		}
		res.Name = q.Name

		fmt.Fprintln(r.out, stmt)
		Render(r.out, res.Columns, res.Rows)
		results = append(results, res)
	}
	return results, nil
}

func query(ctx context.Context, db *sql.DB, stmt string) (Result, error) {
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	res := Result{Statement: stmt, Columns: cols}
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		row := make([]recordset.Value, len(cols))
		for i, v := range raw {
			row[i] = recordset.FromAny(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Render prints rows under columns as a table.
func Render(w io.Writer, columns []string, rows [][]recordset.Value) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = cellText(v)
		}
		t.AppendRow(tr)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// RenderRecordSet prints rs with its positional index as the first column.
func RenderRecordSet(w io.Writer, rs *recordset.RecordSet) {
	columns := append([]string{""}, rs.Columns()...)
	rows := make([][]recordset.Value, rs.Len())
	for i := range rows {
		rows[i] = append([]recordset.Value{recordset.TextValue(fmt.Sprint(i))}, rs.Row(i)...)
	}
	Render(w, columns, rows)
}

func cellText(v recordset.Value) string {
	if v.IsMissing() {
		return NullText
	}
	return v.String()
}
