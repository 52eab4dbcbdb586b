// Package votable decodes VOTable XML documents, the wire format returned by
// TAP services for both metadata and data queries. Only TABLEDATA-encoded
// result tables are supported, which is what the sync endpoint returns.
package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/table"
)

type voDocument struct {
	XMLName   xml.Name     `xml:"VOTABLE"`
	Resources []voResource `xml:"RESOURCE"`
}

type voResource struct {
	Type   string    `xml:"type,attr"`
	Infos  []voInfo  `xml:"INFO"`
	Tables []voTable `xml:"TABLE"`
}

type voInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type voTable struct {
	Fields []voField `xml:"FIELD"`
	Rows   []voRow   `xml:"DATA>TABLEDATA>TR"`
}

type voField struct {
	Name     string `xml:"name,attr"`
	Datatype string `xml:"datatype,attr"`
	Unit     string `xml:"unit,attr"`
}

type voRow struct {
	Cells []string `xml:"TD"`
}

// Decode parses a VOTable document into a table. A QUERY_STATUS=ERROR info
// element is surfaced as a remote error carrying the service's message.
func Decode(r io.Reader) (*table.Table, error) {
	var doc voDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, cserr.Wrap(cserr.KindRemote, err, "malformed VOTable response")
	}

	var res *voResource
	for i := range doc.Resources {
		if doc.Resources[i].Type == "results" {
			res = &doc.Resources[i]
			break
		}
	}
	if res == nil && len(doc.Resources) > 0 {
		res = &doc.Resources[0]
	}
	if res == nil {
		return nil, cserr.New(cserr.KindRemote, "VOTable response contains no resources")
	}

	for _, info := range res.Infos {
		if info.Name == "QUERY_STATUS" && strings.EqualFold(info.Value, "ERROR") {
			var msg = strings.TrimSpace(info.Text)
			if msg == "" {
				msg = "no detail provided"
			}
			return nil, cserr.New(cserr.KindRemote, "remote query failed: %s", msg)
		}
	}

	if len(res.Tables) == 0 {
		return nil, cserr.New(cserr.KindRemote, "VOTable resource contains no table")
	}
	return decodeTable(&res.Tables[0])
}

func decodeTable(vt *voTable) (*table.Table, error) {
	var tbl = &table.Table{}
	for _, f := range vt.Fields {
		typ, err := typeForDatatype(f.Datatype)
		if err != nil {
			return nil, cserr.Wrap(cserr.KindRemote, err, "field %q", f.Name)
		}
		tbl.Columns = append(tbl.Columns, table.Column{Name: f.Name, Type: typ, Unit: f.Unit})
	}

	for ri, row := range vt.Rows {
		if len(row.Cells) != len(tbl.Columns) {
			return nil, cserr.New(cserr.KindRemote,
				"row %d has %d cells, expected %d", ri, len(row.Cells), len(tbl.Columns))
		}
		var cells = make([]any, len(row.Cells))
		for ci, text := range row.Cells {
			v, err := decodeCell(tbl.Columns[ci].Type, text)
			if err != nil {
				return nil, cserr.Wrap(cserr.KindRemote, err,
					"row %d column %q", ri, tbl.Columns[ci].Name)
			}
			cells[ci] = v
		}
		tbl.Rows = append(tbl.Rows, cells)
	}
	return tbl, nil
}

func typeForDatatype(datatype string) (table.Type, error) {
	switch datatype {
	case "boolean":
		return table.Bool, nil
	case "unsignedByte", "short":
		return table.Int16, nil
	case "int":
		return table.Int32, nil
	case "long":
		return table.Int64, nil
	case "float":
		return table.Float32, nil
	case "double":
		return table.Float64, nil
	case "char", "unicodeChar":
		return table.String, nil
	default:
		return 0, fmt.Errorf("unsupported datatype %q", datatype)
	}
}

// decodeCell converts TABLEDATA cell text to the column's Go value. Empty
// cells decode to the type's zero value, which is how the sync endpoint
// represents nulls.
func decodeCell(typ table.Type, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch typ {
	case table.Bool:
		if text == "" {
			return false, nil
		}
		switch strings.ToLower(text) {
		case "t", "true", "1":
			return true, nil
		case "f", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("bad boolean %q", text)
	case table.Int16:
		if text == "" {
			return int16(0), nil
		}
		n, err := strconv.ParseInt(text, 10, 16)
		return int16(n), err
	case table.Int32:
		if text == "" {
			return int32(0), nil
		}
		n, err := strconv.ParseInt(text, 10, 32)
		return int32(n), err
	case table.Int64:
		if text == "" {
			return int64(0), nil
		}
		return strconv.ParseInt(text, 10, 64)
	case table.Float32:
		if text == "" {
			return float32(0), nil
		}
		f, err := strconv.ParseFloat(text, 32)
		return float32(f), err
	case table.Float64:
		if text == "" {
			return float64(0), nil
		}
		return strconv.ParseFloat(text, 64)
	case table.String:
		return text, nil
	}
	return nil, fmt.Errorf("unsupported column type %s", typ)
}
