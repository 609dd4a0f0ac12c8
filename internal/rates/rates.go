// Package rates loads the currency exchange-rate reference table.
package rates

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownCurrency is returned when a requested currency has no rate.
var ErrUnknownCurrency = errors.New("unknown currency")

// Source fetches the raw reference table.
type Source interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// Table maps an ISO currency code to the number of units of that currency
// per one USD. It is read-only once loaded.
type Table map[string]float64

// Load fetches locator from src and parses it.
func Load(ctx context.Context, src Source, locator string) (Table, error) {
	data, err := src.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("load exchange rates: %w", err)
	}
	t, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load exchange rates from %s: %w", locator, err)
	}
	return t, nil
}

// Parse reads a CSV document whose header contains Currency and Rate columns.
// Other columns are ignored.
func Parse(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty rate table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	currencyCol, rateCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "currency":
			currencyCol = i
		case "rate":
			rateCol = i
		}
	}
	if currencyCol < 0 || rateCol < 0 {
		return nil, fmt.Errorf("header %v lacks Currency and Rate columns", header)
	}

	t := make(Table)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= currencyCol || len(rec) <= rateCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(currencyCol, rateCol)+1, len(rec))
		}
		code := strings.ToUpper(strings.TrimSpace(rec[currencyCol]))
		if code == "" {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(rec[rateCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: rate for %s: %w", line, code, err)
		}
		if _, dup := t[code]; dup {
			return nil, fmt.Errorf("line %d: duplicate currency %s", line, code)
		}
		t[code] = rate
	}
	return t, nil
}

// Rate returns the rate for code.
func (t Table) Rate(code string) (float64, error) {
	rate, ok := t[strings.ToUpper(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}

// Currencies returns the known currency codes, sorted.
func (t Table) Currencies() []string {
	codes := make([]string, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
