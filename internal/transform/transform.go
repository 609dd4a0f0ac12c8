// Package transform turns extracted text columns into numeric columns.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/rates"
	"github.com/dbsmedya/wikietl/internal/recordset"
)

// CoercionWarning records a cell that could not be read as a number and was
// stored as missing.
type CoercionWarning struct {
	Row    int
	Column string
	Raw    string
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q as a number", w.Row, w.Column, w.Raw)
}

// Transformer derives a new record set. The input is never modified.
type Transformer interface {
	Transform(rs *recordset.RecordSet) (*recordset.RecordSet, []CoercionWarning, error)
}

// FromConfig builds the transformer a job asks for. rateTable is only
// consulted for the currency transform and may be nil otherwise.
func FromConfig(tc config.TransformConfig, rateTable rates.Table) (Transformer, error) {
	rounding, err := ParseRounding(tc.Rounding)
	if err != nil {
		return nil, err
	}
	switch tc.Type {
	case config.TransformCurrency:
		return NewCurrencyExpander(CurrencyOptions{
			Column:        tc.Column,
			Currencies:    tc.Currencies,
			ColumnPattern: tc.ColumnPattern,
			Rounding:      rounding,
			Decimals:      tc.Decimals,
		}, rateTable)
	case config.TransformRescale:
		return NewUnitRescaler(RescaleOptions{
			Column:         tc.Column,
			Rename:         tc.Rename,
			Scale:          tc.Scale,
			LegacyConstant: tc.LegacyConstant,
			Rounding:       rounding,
			Decimals:       tc.Decimals,
		})
	case config.TransformNone, "":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unknown transform type %q", tc.Type)
	}
}

// Identity passes the record set through unchanged.
type Identity struct{}

// Transform returns rs.
func (Identity) Transform(rs *recordset.RecordSet) (*recordset.RecordSet, []CoercionWarning, error) {
	return rs, nil, nil
}

// parseColumn converts column to floats. Text that does not parse becomes
// missing and produces a warning. cleanup prepares the raw text.
func parseColumn(rs *recordset.RecordSet, column string, cleanup func(string) string) (*recordset.RecordSet, []CoercionWarning, error) {
	var warnings []CoercionWarning
	out, err := rs.ReplaceColumn(column, recordset.Float, func(i int, v recordset.Value) recordset.Value {
		if v.IsMissing() {
			return recordset.Missing(recordset.Float)
		}
		if f, ok := v.Float(); ok {
			return recordset.FloatValue(f)
		}
		f, err := strconv.ParseFloat(cleanup(v.Text()), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			warnings = append(warnings, CoercionWarning{Row: i, Column: column, Raw: v.Text()})
			return recordset.Missing(recordset.Float)
		}
		return recordset.FloatValue(f)
	})
	if err != nil {
		return nil, nil, err
	}
	return out, warnings, nil
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
