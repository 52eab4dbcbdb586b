// Package fits reads and writes FITS binary tables. It covers the subset of
// the standard needed here: a minimal primary HDU followed by one BINTABLE
// extension with scalar logical, integer, floating point, and character
// columns. Reference tables produced by common astronomy tooling decode with
// the reader, and the writer's output is byte-deterministic for identical
// input tables.
package fits

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/astrocat/conesearch/table"
)

const blockSize = 2880
const cardSize = 80

// column layout computed from a table.Column for serialization.
type colLayout struct {
	form  string // TFORM value, e.g. "D" or "12A"
	width int    // bytes per cell
}

func layoutFor(col table.Column, rows [][]any, idx int) (colLayout, error) {
	switch col.Type {
	case table.Bool:
		return colLayout{form: "L", width: 1}, nil
	case table.Int16:
		return colLayout{form: "I", width: 2}, nil
	case table.Int32:
		return colLayout{form: "J", width: 4}, nil
	case table.Int64:
		return colLayout{form: "K", width: 8}, nil
	case table.Float32:
		return colLayout{form: "E", width: 4}, nil
	case table.Float64:
		return colLayout{form: "D", width: 8}, nil
	case table.String:
		var width = 1
		for _, row := range rows {
			if s, ok := row[idx].(string); ok && len(s) > width {
				width = len(s)
			}
		}
		return colLayout{form: strconv.Itoa(width) + "A", width: width}, nil
	default:
		return colLayout{}, fmt.Errorf("column %q: unsupported type %s", col.Name, col.Type)
	}
}

// WriteFile serializes tbl as a FITS file at path, overwriting any existing
// file of that name.
func WriteFile(path string, tbl *table.Table) error {
	data, err := Marshal(tbl)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal serializes tbl as a complete FITS file: an empty primary HDU
// followed by a single BINTABLE extension.
func Marshal(tbl *table.Table) ([]byte, error) {
	var layouts = make([]colLayout, len(tbl.Columns))
	var rowBytes int
	for i, col := range tbl.Columns {
		l, err := layoutFor(col, tbl.Rows, i)
		if err != nil {
			return nil, err
		}
		layouts[i] = l
		rowBytes += l.width
	}

	var buf bytes.Buffer

	var primary = newHeader()
	primary.appendLogical("SIMPLE", true, "conforms to FITS standard")
	primary.appendInt("BITPIX", 8, "array data type")
	primary.appendInt("NAXIS", 0, "number of array dimensions")
	primary.appendLogical("EXTEND", true, "")
	primary.writeTo(&buf)

	var ext = newHeader()
	ext.appendString("XTENSION", "BINTABLE", "binary table extension")
	ext.appendInt("BITPIX", 8, "array data type")
	ext.appendInt("NAXIS", 2, "number of array dimensions")
	ext.appendInt("NAXIS1", rowBytes, "length of dimension 1")
	ext.appendInt("NAXIS2", len(tbl.Rows), "length of dimension 2")
	ext.appendInt("PCOUNT", 0, "number of group parameters")
	ext.appendInt("GCOUNT", 1, "number of groups")
	ext.appendInt("TFIELDS", len(tbl.Columns), "number of table fields")
	for i, col := range tbl.Columns {
		var n = strconv.Itoa(i + 1)
		ext.appendString("TTYPE"+n, col.Name, "")
		ext.appendString("TFORM"+n, layouts[i].form, "")
		if col.Unit != "" {
			ext.appendString("TUNIT"+n, col.Unit, "")
		}
	}
	ext.writeTo(&buf)

	for _, row := range tbl.Rows {
		for i, col := range tbl.Columns {
			if err := writeCell(&buf, col, layouts[i], row[i]); err != nil {
				return nil, err
			}
		}
	}
	padBlock(&buf, 0x00)

	return buf.Bytes(), nil
}

func writeCell(buf *bytes.Buffer, col table.Column, l colLayout, v any) error {
	switch col.Type {
	case table.Bool:
		b, ok := v.(bool)
		if !ok {
			return cellTypeErr(col, v)
		}
		if b {
			buf.WriteByte('T')
		} else {
			buf.WriteByte('F')
		}
	case table.Int16:
		n, ok := table.AsInt64(v)
		if !ok {
			return cellTypeErr(col, v)
		}
		binary.Write(buf, binary.BigEndian, int16(n))
	case table.Int32:
		n, ok := table.AsInt64(v)
		if !ok {
			return cellTypeErr(col, v)
		}
		binary.Write(buf, binary.BigEndian, int32(n))
	case table.Int64:
		n, ok := table.AsInt64(v)
		if !ok {
			return cellTypeErr(col, v)
		}
		binary.Write(buf, binary.BigEndian, n)
	case table.Float32:
		f, ok := table.AsFloat64(v)
		if !ok {
			return cellTypeErr(col, v)
		}
		binary.Write(buf, binary.BigEndian, float32(f))
	case table.Float64:
		f, ok := table.AsFloat64(v)
		if !ok {
			return cellTypeErr(col, v)
		}
		binary.Write(buf, binary.BigEndian, f)
	case table.String:
		s, ok := v.(string)
		if !ok {
			return cellTypeErr(col, v)
		}
		if len(s) > l.width {
			s = s[:l.width]
		}
		buf.WriteString(s)
		for i := len(s); i < l.width; i++ {
			buf.WriteByte(' ')
		}
	}
	return nil
}

func cellTypeErr(col table.Column, v any) error {
	return fmt.Errorf("column %q expects %s, got %T", col.Name, col.Type, v)
}

// ReadFile parses the first binary table extension of the FITS file at path.
func ReadFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tbl, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return tbl, nil
}

// Read parses the first binary table extension found in r.
func Read(r io.Reader) (*table.Table, error) {
	// Primary HDU must come first; its data (usually none) is skipped.
	hdr, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("reading primary header: %w", err)
	}
	if err := skipData(r, hdr); err != nil {
		return nil, err
	}

	for {
		hdr, err = readHeader(r)
		if err == io.EOF {
			return nil, fmt.Errorf("no binary table extension found")
		} else if err != nil {
			return nil, fmt.Errorf("reading extension header: %w", err)
		}
		if hdr.str("XTENSION") == "BINTABLE" {
			return readTableData(r, hdr)
		}
		if err := skipData(r, hdr); err != nil {
			return nil, err
		}
	}
}

func readTableData(r io.Reader, hdr header) (*table.Table, error) {
	var nCols = int(hdr.integer("TFIELDS"))
	var rowBytes = int(hdr.integer("NAXIS1"))
	var nRows = int(hdr.integer("NAXIS2"))

	var tbl = &table.Table{}
	var widths = make([]int, nCols)
	var kinds = make([]byte, nCols)
	var total int
	for i := 0; i < nCols; i++ {
		var n = strconv.Itoa(i + 1)
		form := hdr.str("TFORM" + n)
		kind, width, err := parseForm(form)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		typ, err := typeForKind(kind)
		if err != nil {
			return nil, fmt.Errorf("column %d (TFORM %q): %w", i+1, form, err)
		}
		tbl.Columns = append(tbl.Columns, table.Column{
			Name: hdr.str("TTYPE" + n),
			Type: typ,
			Unit: hdr.str("TUNIT" + n),
		})
		widths[i] = width
		kinds[i] = kind
		total += width
	}
	if total != rowBytes {
		return nil, fmt.Errorf("row is %d bytes but columns sum to %d", rowBytes, total)
	}

	var data = make([]byte, padded(nRows*rowBytes))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading table data: %w", err)
	}

	var off int
	for ri := 0; ri < nRows; ri++ {
		var row = make([]any, nCols)
		for ci := 0; ci < nCols; ci++ {
			row[ci] = decodeCell(kinds[ci], data[off:off+widths[ci]])
			off += widths[ci]
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

func parseForm(form string) (kind byte, width int, err error) {
	form = strings.TrimSpace(form)
	if form == "" {
		return 0, 0, fmt.Errorf("empty TFORM")
	}
	var repeat = 1
	var i = 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	if i > 0 {
		repeat, err = strconv.Atoi(form[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("bad TFORM %q", form)
		}
	}
	if i == len(form) {
		return 0, 0, fmt.Errorf("bad TFORM %q", form)
	}
	kind = form[i]
	var unit int
	switch kind {
	case 'L', 'B', 'A':
		unit = 1
	case 'I':
		unit = 2
	case 'J', 'E':
		unit = 4
	case 'K', 'D':
		unit = 8
	default:
		return 0, 0, fmt.Errorf("unsupported TFORM %q", form)
	}
	if kind != 'A' && repeat != 1 {
		return 0, 0, fmt.Errorf("unsupported repeat count in TFORM %q", form)
	}
	return kind, repeat * unit, nil
}

func typeForKind(kind byte) (table.Type, error) {
	switch kind {
	case 'L':
		return table.Bool, nil
	case 'B', 'I':
		return table.Int16, nil
	case 'J':
		return table.Int32, nil
	case 'K':
		return table.Int64, nil
	case 'E':
		return table.Float32, nil
	case 'D':
		return table.Float64, nil
	case 'A':
		return table.String, nil
	}
	return 0, fmt.Errorf("unsupported column kind %q", string(kind))
}

func decodeCell(kind byte, raw []byte) any {
	switch kind {
	case 'L':
		return raw[0] == 'T'
	case 'B':
		return int16(raw[0])
	case 'I':
		return int16(binary.BigEndian.Uint16(raw))
	case 'J':
		return int32(binary.BigEndian.Uint32(raw))
	case 'K':
		return int64(binary.BigEndian.Uint64(raw))
	case 'E':
		return math.Float32frombits(binary.BigEndian.Uint32(raw))
	case 'D':
		return math.Float64frombits(binary.BigEndian.Uint64(raw))
	case 'A':
		return strings.TrimRight(string(raw), " \x00")
	}
	return nil
}

func skipData(r io.Reader, hdr header) error {
	var naxis = int(hdr.integer("NAXIS"))
	if naxis == 0 {
		return nil
	}
	var elems = 1
	for i := 1; i <= naxis; i++ {
		elems *= int(hdr.integer("NAXIS" + strconv.Itoa(i)))
	}
	elems += int(hdr.integer("PCOUNT", 0))
	var bytesPer = int(math.Abs(float64(hdr.integer("BITPIX")))) / 8
	var size = bytesPer * int(hdr.integer("GCOUNT", 1)) * elems
	if size == 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, int64(padded(size))); err != nil {
		return fmt.Errorf("skipping HDU data: %w", err)
	}
	return nil
}

func padded(n int) int {
	if rem := n % blockSize; rem != 0 {
		return n + blockSize - rem
	}
	return n
}

func padBlock(buf *bytes.Buffer, fill byte) {
	for buf.Len()%blockSize != 0 {
		buf.WriteByte(fill)
	}
}
