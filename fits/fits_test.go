package fits

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrocat/conesearch/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	var tbl = table.New(
		table.Column{Name: "fieldid", Type: table.Int32},
		table.Column{Name: "ra", Type: table.Float64, Unit: "deg"},
		table.Column{Name: "dec", Type: table.Float64, Unit: "deg"},
		table.Column{Name: "gmag", Type: table.Float32, Unit: "mag"},
		table.Column{Name: "Names", Type: table.String},
		table.Column{Name: "ok", Type: table.Bool},
	)
	require.NoError(t, tbl.AppendRow(int32(42), 10.12345, -65.54321, float32(18.25), "NGC 104, 47 Tuc", true))
	require.NoError(t, tbl.AppendRow(int32(43), 11.5, -64.0, float32(19.5), "SL 13", false))
	return tbl
}

func TestRoundtrip(t *testing.T) {
	var tbl = sampleTable(t)
	data, err := Marshal(tbl)
	require.NoError(t, err)
	require.Zero(t, len(data)%blockSize, "FITS files must be block-aligned")

	got, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, tbl.Columns, got.Columns)
	require.Equal(t, tbl.Rows, got.Rows)
}

func TestMarshalDeterministic(t *testing.T) {
	var tbl = sampleTable(t)
	first, err := Marshal(tbl)
	require.NoError(t, err)
	second, err := Marshal(tbl)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestWriteFileOverwrites(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "out.fits")
	var tbl = sampleTable(t)

	require.NoError(t, WriteFile(path, tbl))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, tbl))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEmptyTable(t *testing.T) {
	var tbl = table.New(
		table.Column{Name: "ra", Type: table.Float64, Unit: "deg"},
	)
	data, err := Marshal(tbl)
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 0, got.Len())
	require.Equal(t, tbl.Columns, got.Columns)
}

func TestStringPadding(t *testing.T) {
	var tbl = table.New(table.Column{Name: "Names", Type: table.String})
	require.NoError(t, tbl.AppendRow("NGC 1850"))
	require.NoError(t, tbl.AppendRow("x"))

	data, err := Marshal(tbl)
	require.NoError(t, err)
	got, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "NGC 1850", got.Rows[0][0])
	require.Equal(t, "x", got.Rows[1][0])
}

func TestHeaderValueParsing(t *testing.T) {
	require.Equal(t, "BINTABLE", parseValue("'BINTABLE'           / binary table extension"))
	require.Equal(t, "D", parseValue("'D       '"))
	require.Equal(t, "it's", parseValue("'it''s   '"))
	require.Equal(t, "2880", parseValue("                2880 / length of dimension 1"))
}

func TestParseForm(t *testing.T) {
	kind, width, err := parseForm("12A")
	require.NoError(t, err)
	require.Equal(t, byte('A'), kind)
	require.Equal(t, 12, width)

	kind, width, err = parseForm("1D")
	require.NoError(t, err)
	require.Equal(t, byte('D'), kind)
	require.Equal(t, 8, width)

	_, _, err = parseForm("3E")
	require.Error(t, err, "vector columns are not supported")
	_, _, err = parseForm("P")
	require.Error(t, err)
}
