// Package recordset holds the tabular record set passed between pipeline stages.
package recordset

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned when a column name is not part of the schema.
var ErrColumnNotFound = errors.New("column not found")

// Row is one record, aligned with the schema's column order.
type Row []Value

// RecordSet is an ordered sequence of rows sharing one schema. Every row has
// exactly the schema's columns with matching kinds.
type RecordSet struct {
	schema *Schema
	rows   []Row
}

// New creates an empty record set.
func New(schema *Schema) *RecordSet {
	return &RecordSet{schema: schema}
}

// Schema returns the record set's schema.
func (rs *RecordSet) Schema() *Schema { return rs.schema }

// Columns returns the column names in order.
func (rs *RecordSet) Columns() []string { return rs.schema.Names() }

// Len returns the number of rows.
func (rs *RecordSet) Len() int { return len(rs.rows) }

// Append adds a row. The values must match the schema in arity and kind.
func (rs *RecordSet) Append(values ...Value) error {
	cols := rs.schema.Columns()
	if len(values) != len(cols) {
		return &SchemaError{Message: fmt.Sprintf("row has %d values, schema has %d columns", len(values), len(cols))}
	}
	for i, v := range values {
		if v.Kind() != cols[i].Kind {
			return &SchemaError{
				Column:  cols[i].Name,
				Message: fmt.Sprintf("expected %s value, got %s", cols[i].Kind, v.Kind()),
			}
		}
	}
	row := make(Row, len(values))
	copy(row, values)
	rs.rows = append(rs.rows, row)
	return nil
}

// Row returns a copy of row i.
func (rs *RecordSet) Row(i int) Row {
	row := make(Row, len(rs.rows[i]))
	copy(row, rs.rows[i])
	return row
}

// Get returns the value of a column in row i.
func (rs *RecordSet) Get(i int, column string) (Value, error) {
	pos, ok := rs.schema.Index(column)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	if i < 0 || i >= len(rs.rows) {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", i, len(rs.rows))
	}
	return rs.rows[i][pos], nil
}

// Column returns all values of a column in row order.
func (rs *RecordSet) Column(name string) ([]Value, error) {
	pos, ok := rs.schema.Index(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make([]Value, len(rs.rows))
	for i, row := range rs.rows {
		out[i] = row[pos]
	}
	return out, nil
}

// WithColumn returns a new record set with col appended, its values computed
// from each existing row. The receiver is not modified.
func (rs *RecordSet) WithColumn(col Column, fn func(i int, row Row) Value) (*RecordSet, error) {
	schema, err := NewSchema(append(rs.schema.Columns(), col)...)
	if err != nil {
		return nil, err
	}
	out := New(schema)
	for i := range rs.rows {
		row := rs.Row(i)
		if err := out.Append(append(row, fn(i, rs.Row(i)))...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// ReplaceColumn returns a new record set where column name has the given kind
// and values computed from the old ones. The receiver is not modified.
func (rs *RecordSet) ReplaceColumn(name string, kind Kind, fn func(i int, v Value) Value) (*RecordSet, error) {
	pos, ok := rs.schema.Index(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	cols := rs.schema.Columns()
	cols[pos].Kind = kind
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	out := New(schema)
	for i := range rs.rows {
		row := rs.Row(i)
		row[pos] = fn(i, row[pos])
		if err := out.Append(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// RenameColumn returns a new record set with column from renamed to to.
func (rs *RecordSet) RenameColumn(from, to string) (*RecordSet, error) {
	pos, ok := rs.schema.Index(from)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, from)
	}
	cols := rs.schema.Columns()
	cols[pos].Name = to
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	out := New(schema)
	for i := range rs.rows {
		out.rows = append(out.rows, rs.Row(i))
	}
	return out, nil
}
