package resolve

import (
	"fmt"
	"path/filepath"

	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/fits"
	"github.com/astrocat/conesearch/table"
)

// fieldTableName is the bundled reference table mapping the survey's
// predefined field identifiers to center coordinates.
const fieldTableName = "TAP-List-of-Fields.fits"

// FieldStrategy resolves a predefined survey field by its integer id.
type FieldStrategy struct {
	TabsPath string
	FieldID  int64

	fields *table.Table // loaded on first use
}

func (f *FieldStrategy) Resolve(radius float64) ([]Target, error) {
	if f.fields == nil {
		tbl, err := fits.ReadFile(filepath.Join(f.TabsPath, fieldTableName))
		if err != nil {
			return nil, fmt.Errorf("loading field reference table: %w", err)
		}
		f.fields = tbl
	}

	var idIdx = f.fields.ColumnIndex("fieldid")
	var raIdx = f.fields.ColumnIndex("ra")
	var decIdx = f.fields.ColumnIndex("dec")
	if idIdx < 0 || raIdx < 0 || decIdx < 0 {
		return nil, fmt.Errorf("field reference table lacks fieldid/ra/dec columns")
	}

	for _, row := range f.fields.Rows {
		id, ok := table.AsInt64(row[idIdx])
		if !ok || id != f.FieldID {
			continue
		}
		ra, _ := table.AsFloat64(row[raIdx])
		dec, _ := table.AsFloat64(row[decIdx])
		return []Target{{
			RA:       ra,
			Dec:      dec,
			Basename: fmt.Sprintf("TAP_f%d_%s", f.FieldID, radiusSuffix(radius)),
			Summary:  fmt.Sprintf("Field %d (RA %.5f, DEC %.5f), rad = %.3f deg", f.FieldID, ra, dec, radius),
		}}, nil
	}

	return nil, cserr.New(cserr.KindNotFound, "field %d not available", f.FieldID)
}
