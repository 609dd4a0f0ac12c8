package csvout

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/wikietl/internal/recordset"
)

func newSchema(t *testing.T, cols ...recordset.Column) *recordset.Schema {
	t.Helper()
	s, err := recordset.NewSchema(cols...)
	require.NoError(t, err)
	return s
}

func sampleSet(t *testing.T) *recordset.RecordSet {
	t.Helper()
	schema := newSchema(t,
		recordset.Column{Name: "Name", Kind: recordset.Text},
		recordset.Column{Name: "MC_EUR_Billion", Kind: recordset.Float},
	)
	rs := recordset.New(schema)
	require.NoError(t, rs.Append(recordset.TextValue("JPMorgan Chase"), recordset.FloatValue(402.62)))
	require.NoError(t, rs.Append(recordset.TextValue("Bank, \"of\" America"), recordset.FloatValue(215.31)))
	require.NoError(t, rs.Append(recordset.TextValue("ICBC"), recordset.FloatValue(8241)))
	return rs
}

func TestEncode_Format(t *testing.T) {
	rs := sampleSet(t)
	require.NoError(t, rs.Append(recordset.TextValue("Unknown"), recordset.Missing(recordset.Float)))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rs))

	want := ",Name,MC_EUR_Billion\n" +
		"0,JPMorgan Chase,402.62\n" +
		"1,\"Bank, \"\"of\"\" America\",215.31\n" +
		"2,ICBC,8241.0\n" +
		"3,Unknown,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	rs := sampleSet(t)
	path := filepath.Join(t.TempDir(), "banks.csv")

	require.NoError(t, Write(path, rs))

	got, err := Read(path, rs.Schema())
	require.NoError(t, err)
	require.Equal(t, rs.Len(), got.Len())
	for i := 0; i < rs.Len(); i++ {
		want, have := rs.Row(i), got.Row(i)
		for j := range want {
			assert.True(t, want[j].Equal(have[j]), "row %d col %d: %v != %v", i, j, want[j], have[j])
		}
	}
}

func TestWrite_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale contents that are longer than the new file\n"), 0o644))

	schema, err := recordset.TextSchema("a")
	require.NoError(t, err)
	rs := recordset.New(schema)
	require.NoError(t, rs.Append(recordset.TextValue("x")))

	require.NoError(t, Write(path, rs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",a\n0,x\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.csv")
	err := Write(path, sampleSet(t))

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "create", we.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_HeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte(",Other,MC_EUR_Billion\n"), 0o644))

	_, err := Read(path, sampleSet(t).Schema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `want "Name"`)
}

func TestDecode_BadFloat(t *testing.T) {
	doc := ",Name,MC_EUR_Billion\n0,A,abc\n"
	_, err := Decode(bytes.NewBufferString(doc), sampleSet(t).Schema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 column MC_EUR_Billion")
}
