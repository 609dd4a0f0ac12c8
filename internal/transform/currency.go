package transform

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/wikietl/internal/rates"
	"github.com/dbsmedya/wikietl/internal/recordset"
)

// CurrencyOptions configures a CurrencyExpander.
type CurrencyOptions struct {
	Column        string   // source column in USD
	Currencies    []string // target currency codes, in output order
	ColumnPattern string   // derived column name, e.g. MC_%s_Billion
	Rounding      Rounding
	Decimals      int
}

type currencyTarget struct {
	code   string
	column string
	rate   float64
}

// CurrencyExpander parses a USD column and appends one converted column per
// target currency.
type CurrencyExpander struct {
	column   string
	targets  []currencyTarget
	rounding Rounding
	decimals int
}

// NewCurrencyExpander resolves every target currency against rateTable.
func NewCurrencyExpander(opts CurrencyOptions, rateTable rates.Table) (*CurrencyExpander, error) {
	if opts.Column == "" {
		return nil, fmt.Errorf("currency transform: source column is required")
	}
	if len(opts.Currencies) == 0 {
		return nil, fmt.Errorf("currency transform: no target currencies")
	}
	pattern := opts.ColumnPattern
	if pattern == "" {
		pattern = "MC_%s_Billion"
	}
	if strings.Count(pattern, "%s") != 1 {
		return nil, fmt.Errorf("currency transform: column pattern %q must contain one %%s", pattern)
	}

	e := &CurrencyExpander{
		column:   opts.Column,
		rounding: opts.Rounding,
		decimals: opts.Decimals,
	}
	for _, code := range opts.Currencies {
		rate, err := rateTable.Rate(code)
		if err != nil {
			return nil, fmt.Errorf("currency transform: %w", err)
		}
		upper := strings.ToUpper(code)
		e.targets = append(e.targets, currencyTarget{
			code:   upper,
			column: fmt.Sprintf(pattern, upper),
			rate:   rate,
		})
	}
	return e, nil
}

// Transform implements Transformer.
func (e *CurrencyExpander) Transform(rs *recordset.RecordSet) (*recordset.RecordSet, []CoercionWarning, error) {
	out, warnings, err := parseColumn(rs, e.column, strings.TrimSpace)
	if err != nil {
		return nil, nil, fmt.Errorf("currency transform: %w", err)
	}
	pos, _ := out.Schema().Index(e.column)

	for _, t := range e.targets {
		rate := t.rate
		out, err = out.WithColumn(recordset.Column{Name: t.column, Kind: recordset.Float}, func(_ int, row recordset.Row) recordset.Value {
			usd, ok := row[pos].Float()
			if !ok {
				return recordset.Missing(recordset.Float)
			}
			return recordset.FloatValue(Round(usd*rate, e.decimals, e.rounding))
		})
		if err != nil {
			return nil, nil, fmt.Errorf("currency transform: add %s: %w", t.column, err)
		}
	}
	return out, warnings, nil
}

// Columns returns the names of the derived columns in output order.
func (e *CurrencyExpander) Columns() []string {
	names := make([]string, len(e.targets))
	for i, t := range e.targets {
		names[i] = t.column
	}
	return names
}
