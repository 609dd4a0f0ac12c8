package transform

import (
	"fmt"

	"github.com/dbsmedya/wikietl/internal/recordset"
)

// RescaleOptions configures a UnitRescaler.
type RescaleOptions struct {
	Column string
	Rename string  // new column name; empty keeps the old one
	Scale  float64 // multiplier, e.g. 0.001 for millions to billions
	// LegacyConstant replaces every parsed value with this constant instead
	// of the scaled value.
	LegacyConstant *float64
	Rounding       Rounding
	Decimals       int
}

// UnitRescaler parses a numeric column written with thousands separators,
// scales it, and renames it.
type UnitRescaler struct {
	opts RescaleOptions
}

// NewUnitRescaler validates opts.
func NewUnitRescaler(opts RescaleOptions) (*UnitRescaler, error) {
	if opts.Column == "" {
		return nil, fmt.Errorf("rescale transform: source column is required")
	}
	if opts.Scale == 0 && opts.LegacyConstant == nil {
		return nil, fmt.Errorf("rescale transform: scale must be non-zero")
	}
	return &UnitRescaler{opts: opts}, nil
}

// Transform implements Transformer.
func (u *UnitRescaler) Transform(rs *recordset.RecordSet) (*recordset.RecordSet, []CoercionWarning, error) {
	out, warnings, err := parseColumn(rs, u.opts.Column, stripSeparators)
	if err != nil {
		return nil, nil, fmt.Errorf("rescale transform: %w", err)
	}

	out, err = out.ReplaceColumn(u.opts.Column, recordset.Float, func(_ int, v recordset.Value) recordset.Value {
		f, ok := v.Float()
		if !ok {
			return v
		}
		if u.opts.LegacyConstant != nil {
			return recordset.FloatValue(Round(*u.opts.LegacyConstant, u.opts.Decimals, u.opts.Rounding))
		}
		return recordset.FloatValue(Round(f*u.opts.Scale, u.opts.Decimals, u.opts.Rounding))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rescale transform: %w", err)
	}

	if u.opts.Rename != "" && u.opts.Rename != u.opts.Column {
		out, err = out.RenameColumn(u.opts.Column, u.opts.Rename)
		if err != nil {
			return nil, nil, fmt.Errorf("rescale transform: %w", err)
		}
	}
	return out, warnings, nil
}
