// Package verifier checks a loaded table against the record set it was
// loaded from.
package verifier

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dbsmedya/wikietl/internal/logger"
	"github.com/dbsmedya/wikietl/internal/recordset"
	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// Method defines how a loaded table is verified.
type Method string

const (
	// MethodCount compares row counts (fast).
	MethodCount Method = "count"
	// MethodSHA256 compares a digest over every row, independent of row order.
	MethodSHA256 Method = "sha256"
	// MethodSkip disables verification.
	MethodSkip Method = "skip"
)

// Result holds the outcome of one verification.
type Result struct {
	Table        string
	Method       Method
	ExpectedRows int64
	ActualRows   int64
	ExpectedHash string
	ActualHash   string
	Match        bool
}

// MismatchError is returned when the table does not hold what was loaded.
type MismatchError struct {
	Table   string
	Message string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification mismatch in table %s: %s", e.Table, e.Message)
}

// Verifier reads a table back and compares it with a record set.
type Verifier struct {
	db      *sql.DB
	dialect sqlutil.Dialect
	method  Method
	logger  *logger.Logger
}

// New creates a verifier. An empty method means MethodCount.
func New(db *sql.DB, dialect sqlutil.Dialect, method Method, log *logger.Logger) (*Verifier, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if method == "" {
		method = MethodCount
	}
	switch method {
	case MethodCount, MethodSHA256, MethodSkip:
	default:
		return nil, fmt.Errorf("unsupported verification method: %s", method)
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{db: db, dialect: dialect, method: method, logger: log}, nil
}

// Method returns the configured method.
func (v *Verifier) Method() Method { return v.method }

// Verify compares table with rs. A mismatch is returned as *MismatchError
// together with the filled-in Result.
func (v *Verifier) Verify(ctx context.Context, table string, rs *recordset.RecordSet) (*Result, error) {
	result := &Result{Table: table, Method: v.method, ExpectedRows: int64(rs.Len())}
	if v.method == MethodSkip {
		v.logger.Infow("Verification skipped", "table", table)
		result.Match = true
		return result, nil
	}

	quoted, err := v.dialect.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, err
	}

	switch v.method {
	case MethodCount:
		var n int64
		if err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		result.ActualRows = n
		result.Match = n == result.ExpectedRows
		if !result.Match {
			return result, &MismatchError{Table: table, Message: fmt.Sprintf("count mismatch: expected=%d, actual=%d", result.ExpectedRows, n)}
		}

	case MethodSHA256:
		result.ExpectedHash = Digest(rs)
		actual, n, err := v.tableDigest(ctx, quoted, rs.Schema())
		if err != nil {
			return nil, fmt.Errorf("failed to hash rows in %s: %w", table, err)
		}
		result.ActualHash = actual
		result.ActualRows = n
		result.Match = n == result.ExpectedRows && actual == result.ExpectedHash
		if !result.Match {
			msg := fmt.Sprintf("hash mismatch: expected=%s, actual=%s", result.ExpectedHash[:16], actual[:16])
			if n != result.ExpectedRows {
				msg = fmt.Sprintf("count mismatch: expected=%d, actual=%d", result.ExpectedRows, n)
			}
			return result, &MismatchError{Table: table, Message: msg}
		}
	}

	v.logger.Debugw("Verification passed", "table", table, "method", v.method, "rows", result.ActualRows)
	return result, nil
}

func (v *Verifier) tableDigest(ctx context.Context, quotedTable string, schema *recordset.Schema) (string, int64, error) {
	cols := schema.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		q, err := v.dialect.QuoteIdentifierSafe(c.Name)
		if err != nil {
			return "", 0, err
		}
		names[i] = q
	}

	rows, err := v.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), quotedTable))
	if err != nil {
		return "", 0, err
	}
	defer rows.Close()

	var sums []string
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", 0, err
		}
		values := make([]recordset.Value, len(cols))
		for i, c := range cols {
			values[i] = normalize(recordset.FromAny(raw[i]), c.Kind)
		}
		sums = append(sums, rowDigest(cols, values))
	}
	if err := rows.Err(); err != nil {
		return "", 0, err
	}
	return combine(sums), int64(len(sums)), nil
}

// Digest returns the order-independent SHA256 digest of every row in rs.
func Digest(rs *recordset.RecordSet) string {
	cols := rs.Schema().Columns()
	sums := make([]string, rs.Len())
	for i := range sums {
		sums[i] = rowDigest(cols, rs.Row(i))
	}
	return combine(sums)
}

// normalize coerces a scanned value to the column's kind. Drivers return
// DOUBLE columns as float64 or as their decimal text.
func normalize(v recordset.Value, kind recordset.Kind) recordset.Value {
	if v.IsMissing() {
		return recordset.Missing(kind)
	}
	if kind == recordset.Float && v.Kind() == recordset.Text {
		f, err := strconv.ParseFloat(v.Text(), 64)
		if err != nil {
			return v
		}
		return recordset.FloatValue(f)
	}
	return v
}

// rowDigest hashes the row's cells joined by NUL bytes. Each cell is tagged
// with its state and kind ("Name\x01N" for missing, "Name=T:<text>",
// "Name=F:<float>") so no payload can collide with the missing marker.
func rowDigest(cols []recordset.Column, values []recordset.Value) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := values[i]
		switch {
		case v.IsMissing():
			parts[i] = c.Name + "\x01N"
		case v.Kind() == recordset.Float:
			parts[i] = c.Name + "=F:" + v.String()
		default:
			parts[i] = c.Name + "=T:" + v.String()
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func combine(sums []string) string {
	sort.Strings(sums)
	h := sha256.New()
	for _, s := range sums {
		h.Write([]byte(s))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
