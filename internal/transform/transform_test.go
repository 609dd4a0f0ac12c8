package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/rates"
	"github.com/dbsmedya/wikietl/internal/recordset"
)

var testRates = rates.Table{"EUR": 0.93, "GBP": 0.8, "INR": 82.0}

func banksSet(t *testing.T, rows ...[2]string) *recordset.RecordSet {
	t.Helper()
	schema, err := recordset.TextSchema("Name", "MC_USD_Billion")
	require.NoError(t, err)
	rs := recordset.New(schema)
	for _, r := range rows {
		require.NoError(t, rs.Append(recordset.TextValue(r[0]), recordset.TextValue(r[1])))
	}
	return rs
}

// rowValues flattens a row into comparable values.
func rowValues(t *testing.T, rs *recordset.RecordSet, i int) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, c := range rs.Columns() {
		v, err := rs.Get(i, c)
		require.NoError(t, err)
		if v.IsMissing() {
			out[c] = "<missing>"
			continue
		}
		out[c] = v.String()
	}
	return out
}

func newBanksExpander(t *testing.T) *CurrencyExpander {
	t.Helper()
	e, err := NewCurrencyExpander(CurrencyOptions{
		Column:     "MC_USD_Billion",
		Currencies: []string{"EUR", "GBP", "INR"},
		Rounding:   HalfEven,
		Decimals:   2,
	}, testRates)
	require.NoError(t, err)
	return e
}

func TestCurrencyExpander_ExampleBank(t *testing.T) {
	e := newBanksExpander(t)
	out, warnings, err := e.Transform(banksSet(t, [2]string{"Example Bank", "100.5"}))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"Name", "MC_USD_Billion", "MC_EUR_Billion", "MC_GBP_Billion", "MC_INR_Billion"}, out.Columns())
	want := map[string]string{
		"Name":           "Example Bank",
		"MC_USD_Billion": "100.5",
		"MC_EUR_Billion": "93.47",
		"MC_GBP_Billion": "80.4",
		"MC_INR_Billion": "8241.0",
	}
	if diff := cmp.Diff(want, rowValues(t, out, 0)); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrencyExpander_Rounding(t *testing.T) {
	e, err := NewCurrencyExpander(CurrencyOptions{
		Column:     "MC_USD_Billion",
		Currencies: []string{"EUR"},
		Decimals:   2,
		Rounding:   HalfEven,
	}, rates.Table{"EUR": 0.93, "HALF": 0.5})
	require.NoError(t, err)

	out, _, err := e.Transform(banksSet(t, [2]string{"A", "1234.565"}))
	require.NoError(t, err)
	v, err := out.Get(0, "MC_EUR_Billion")
	require.NoError(t, err)
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, 1148.15, f)

	// 0.25 * 0.5 = 0.125 lands exactly on the boundary.
	half, err := NewCurrencyExpander(CurrencyOptions{
		Column:     "MC_USD_Billion",
		Currencies: []string{"HALF"},
		Decimals:   2,
		Rounding:   HalfEven,
	}, rates.Table{"HALF": 0.5})
	require.NoError(t, err)
	out, _, err = half.Transform(banksSet(t, [2]string{"B", "0.25"}))
	require.NoError(t, err)
	v, err = out.Get(0, "MC_HALF_Billion")
	require.NoError(t, err)
	f, _ = v.Float()
	assert.Equal(t, 0.12, f)
}

func TestCurrencyExpander_CoercionToMissing(t *testing.T) {
	e := newBanksExpander(t)
	in := banksSet(t, [2]string{"Good", "10"}, [2]string{"Bad", "N/A"})

	out, warnings, err := e.Transform(in)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, CoercionWarning{Row: 1, Column: "MC_USD_Billion", Raw: "N/A"}, warnings[0])
	assert.Contains(t, warnings[0].String(), `"N/A"`)

	row := rowValues(t, out, 1)
	for _, c := range []string{"MC_USD_Billion", "MC_EUR_Billion", "MC_GBP_Billion", "MC_INR_Billion"} {
		assert.Equal(t, "<missing>", row[c], c)
	}
	assert.Equal(t, "9.3", rowValues(t, out, 0)["MC_EUR_Billion"])
}

func TestCurrencyExpander_Deterministic(t *testing.T) {
	e := newBanksExpander(t)
	in := banksSet(t, [2]string{"A", "432.92"}, [2]string{"B", "231.52"}, [2]string{"C", "N/A"})

	first, _, err := e.Transform(in)
	require.NoError(t, err)
	second, _, err := e.Transform(in)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := 0; i < first.Len(); i++ {
		assert.Equal(t, rowValues(t, first, i), rowValues(t, second, i))
	}

	// input untouched
	v, _ := in.Get(0, "MC_USD_Billion")
	assert.Equal(t, recordset.Text, v.Kind())
	assert.Equal(t, []string{"Name", "MC_USD_Billion"}, in.Columns())
}

func TestNewCurrencyExpander_Errors(t *testing.T) {
	_, err := NewCurrencyExpander(CurrencyOptions{Column: "x", Currencies: []string{"JPY"}}, testRates)
	assert.ErrorIs(t, err, rates.ErrUnknownCurrency)

	_, err = NewCurrencyExpander(CurrencyOptions{Column: "x"}, testRates)
	assert.Error(t, err)

	_, err = NewCurrencyExpander(CurrencyOptions{Column: "x", Currencies: []string{"EUR"}, ColumnPattern: "MC_Billion"}, testRates)
	assert.Error(t, err)
}

func TestCurrencyExpander_MissingColumn(t *testing.T) {
	e := newBanksExpander(t)
	schema, err := recordset.TextSchema("Name")
	require.NoError(t, err)
	_, _, err = e.Transform(recordset.New(schema))
	assert.ErrorIs(t, err, recordset.ErrColumnNotFound)
}

func gdpSet(t *testing.T, rows ...[2]string) *recordset.RecordSet {
	t.Helper()
	schema, err := recordset.TextSchema("Country", "GDP_USD_millions")
	require.NoError(t, err)
	rs := recordset.New(schema)
	for _, r := range rows {
		require.NoError(t, rs.Append(recordset.TextValue(r[0]), recordset.TextValue(r[1])))
	}
	return rs
}

func TestUnitRescaler(t *testing.T) {
	u, err := NewUnitRescaler(RescaleOptions{
		Column:   "GDP_USD_millions",
		Rename:   "GDP_USD_billions",
		Scale:    0.001,
		Rounding: HalfEven,
		Decimals: 2,
	})
	require.NoError(t, err)

	out, warnings, err := u.Transform(gdpSet(t,
		[2]string{"United States", "26,854,599"},
		[2]string{"Tuvalu", " 63 "},
		[2]string{"Nowhere", "n/a"},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "GDP_USD_billions"}, out.Columns())
	assert.Equal(t, "26854.6", rowValues(t, out, 0)["GDP_USD_billions"])
	assert.Equal(t, "0.06", rowValues(t, out, 1)["GDP_USD_billions"])
	assert.Equal(t, "<missing>", rowValues(t, out, 2)["GDP_USD_billions"])
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Row)
}

// The original GDP script replaced every parsed value with 100. That is kept
// behind LegacyConstant only; the default rescale retains the parsed value.
func TestUnitRescaler_LegacyConstantDeviation(t *testing.T) {
	in := gdpSet(t, [2]string{"United States", "26,854,599"}, [2]string{"Tuvalu", "63"})
	legacy := 100.0

	faithful, err := NewUnitRescaler(RescaleOptions{
		Column:         "GDP_USD_millions",
		Rename:         "GDP_USD_billions",
		Scale:          0.001,
		LegacyConstant: &legacy,
		Decimals:       2,
	})
	require.NoError(t, err)
	out, _, err := faithful.Transform(in)
	require.NoError(t, err)
	for i := 0; i < out.Len(); i++ {
		assert.Equal(t, "100.0", rowValues(t, out, i)["GDP_USD_billions"])
	}

	corrected, err := NewUnitRescaler(RescaleOptions{
		Column:   "GDP_USD_millions",
		Rename:   "GDP_USD_billions",
		Scale:    0.001,
		Decimals: 2,
	})
	require.NoError(t, err)
	out, _, err = corrected.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, "26854.6", rowValues(t, out, 0)["GDP_USD_billions"])
	assert.Equal(t, "0.06", rowValues(t, out, 1)["GDP_USD_billions"])
}

func TestNewUnitRescaler_Errors(t *testing.T) {
	_, err := NewUnitRescaler(RescaleOptions{Scale: 1})
	assert.Error(t, err)
	_, err = NewUnitRescaler(RescaleOptions{Column: "x"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	tr, err := FromConfig(config.BanksJob().Transform, testRates)
	require.NoError(t, err)
	assert.IsType(t, &CurrencyExpander{}, tr)
	assert.Equal(t, []string{"MC_EUR_Billion", "MC_GBP_Billion", "MC_INR_Billion"}, tr.(*CurrencyExpander).Columns())

	tr, err = FromConfig(config.GDPJob().Transform, nil)
	require.NoError(t, err)
	assert.IsType(t, &UnitRescaler{}, tr)

	tr, err = FromConfig(config.TransformConfig{Type: config.TransformNone}, nil)
	require.NoError(t, err)
	in := gdpSet(t, [2]string{"A", "1"})
	out, warnings, err := tr.Transform(in)
	require.NoError(t, err)
	assert.Nil(t, warnings)
	assert.Same(t, in, out)

	_, err = FromConfig(config.TransformConfig{Type: "pivot"}, nil)
	assert.Error(t, err)

	_, err = FromConfig(config.TransformConfig{Type: config.TransformCurrency, Rounding: "odd"}, testRates)
	assert.Error(t, err)
}
