package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	var tbl = New(
		Column{Name: "ra", Type: Float64, Unit: "Degrees"},
		Column{Name: "dec", Type: Float64, Unit: "Degrees"},
		Column{Name: "id", Type: Int32},
	)
	require.NoError(t, tbl.AppendRow(10.12345, -65.54321, int32(1)))
	require.NoError(t, tbl.AppendRow(10.22345, -65.44321, int32(2)))
	return tbl
}

func TestColumnIndex(t *testing.T) {
	var tbl = testTable(t)
	require.Equal(t, 0, tbl.ColumnIndex("ra"))
	require.Equal(t, 2, tbl.ColumnIndex("id"))
	require.Equal(t, -1, tbl.ColumnIndex("nope"))
}

func TestAppendRowArity(t *testing.T) {
	var tbl = testTable(t)
	require.Error(t, tbl.AppendRow(1.0, 2.0))
	require.Equal(t, 2, tbl.Len())
}

func TestFloat64s(t *testing.T) {
	var tbl = testTable(t)
	ras, err := tbl.Float64s("ra")
	require.NoError(t, err)
	require.Equal(t, []float64{10.12345, 10.22345}, ras)

	// Integer columns widen.
	ids, err := tbl.Float64s("id")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, ids)

	_, err = tbl.Float64s("nope")
	require.Error(t, err)
}

func TestNumericWidening(t *testing.T) {
	for _, v := range []any{int16(7), int32(7), int64(7), 7, float32(7), float64(7)} {
		f, ok := AsFloat64(v)
		require.True(t, ok)
		require.Equal(t, 7.0, f)
	}
	_, ok := AsFloat64("7")
	require.False(t, ok)

	n, ok := AsInt64(float64(42))
	require.True(t, ok)
	require.Equal(t, int64(42), n)
	_, ok = AsInt64(42.5)
	require.False(t, ok)
}
