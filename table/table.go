// Package table provides the in-memory result table model shared by the
// VOTable decoder, the FITS codec, and the catalog writer: an ordered set
// of named, typed, unit-tagged columns plus row-major cell values.
package table

import (
	"fmt"
)

// Type identifies the storage type of a column's cells.
type Type int

const (
	Bool Type = iota
	Int16
	Int32
	Int64
	Float32
	Float64
	String
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Column describes a single table column. Unit carries the column's physical
// unit annotation as reported by the producing service, which may be blank.
type Column struct {
	Name string
	Type Type
	Unit string
}

// Table is an ordered sequence of rows with named, typed columns. A row is a
// slice of cells with one entry per column, each holding the Go value
// matching the column Type.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(columns ...Column) *Table {
	return &Table{Columns: columns}
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// AppendRow appends one row of cell values, which must match the column count.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d cells but table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, values)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Float64s extracts the named numeric column as float64 values, widening
// narrower integer and float cells as needed.
func (t *Table) Float64s(name string) ([]float64, error) {
	var idx = t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("no column named %q", name)
	}
	var out = make([]float64, 0, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := AsFloat64(row[idx])
		if !ok {
			return nil, fmt.Errorf("row %d column %q holds non-numeric value %v", i, name, row[idx])
		}
		out = append(out, v)
	}
	return out, nil
}

// AsFloat64 widens any numeric cell value to float64.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// AsInt64 widens any integer cell value to int64. Floats are accepted only
// when they hold an exact integral value, which is how identifier columns
// sometimes come back from type-lossy decoders.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float32:
		if float32(int64(x)) == x {
			return int64(x), true
		}
	case float64:
		if float64(int64(x)) == x {
			return int64(x), true
		}
	}
	return 0, false
}
