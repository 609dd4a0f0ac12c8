// Package csvout writes record sets as CSV files with a leading positional
// index column.
package csvout

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dbsmedya/wikietl/internal/recordset"
)

// WriteError reports a failed CSV write or read.
type WriteError struct {
	Path string
	Op   string // create, write, rename, read
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("csv %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Write stores rs at path, replacing any existing file. The header is an
// empty index header followed by the column names; each record starts with
// its zero-based position. Missing values are empty fields.
//
// The file is written to a temporary sibling first and renamed into place,
// so readers never see a partial file.
func Write(path string, rs *recordset.RecordSet) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Op: "create", Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, rs); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// Encode writes rs to w in the format described by Write.
func Encode(w io.Writer, rs *recordset.RecordSet) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, rs.Columns()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := 0; i < rs.Len(); i++ {
		record[0] = strconv.Itoa(i)
		for j, v := range rs.Row(i) {
			record[j+1] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read loads a file produced by Write. The header must match schema; the
// index column is dropped. Empty fields read back as missing.
func Read(path string, schema *recordset.Schema) (*recordset.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &WriteError{Path: path, Op: "read", Err: err}
	}
	defer f.Close()

	rs, err := Decode(f, schema)
	if err != nil {
		return nil, &WriteError{Path: path, Op: "read", Err: err}
	}
	return rs, nil
}

// Decode reads the format described by Write from r.
func Decode(r io.Reader, schema *recordset.Schema) (*recordset.RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = schema.Len() + 1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, err
	}
	cols := schema.Columns()
	for i, c := range cols {
		if header[i+1] != c.Name {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i+1], c.Name)
		}
	}

	rs := recordset.New(schema)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		values := make([]recordset.Value, len(cols))
		for i, c := range cols {
			v, err := decodeField(rec[i+1], c.Kind)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, c.Name, err)
			}
			values[i] = v
		}
		if err := rs.Append(values...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return rs, nil
}

func decodeField(field string, kind recordset.Kind) (recordset.Value, error) {
	if field == "" {
		return recordset.Missing(kind), nil
	}
	if kind == recordset.Float {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return recordset.Value{}, err
		}
		return recordset.FloatValue(f), nil
	}
	return recordset.TextValue(field), nil
}
