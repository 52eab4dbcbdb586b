// Package catalog normalizes result-table units and persists the table as a
// FITS catalog file.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/astrocat/conesearch/fits"
	"github.com/astrocat/conesearch/table"
)

// Canonical unit strings.
const (
	UnitDimensionless = ""
	UnitDegree        = "deg"
	UnitMagnitude     = "mag"
)

// subdirectory of the output path that catalog files are written under.
const catalogsDir = "catalogs"

// NormalizeUnits reconciles the remote service's inconsistently capitalized
// unit annotations to canonical unit strings, in place. Blank and "None"
// become dimensionless, any capitalization of "degrees" becomes "deg",
// "Magnitude" becomes "mag", and every other annotation passes through
// unchanged.
func NormalizeUnits(tbl *table.Table) {
	for i, col := range tbl.Columns {
		switch {
		case col.Unit == "" || strings.EqualFold(col.Unit, "none"):
			tbl.Columns[i].Unit = UnitDimensionless
		case strings.EqualFold(col.Unit, "degrees") || strings.EqualFold(col.Unit, "degree"):
			tbl.Columns[i].Unit = UnitDegree
		case col.Unit == "Magnitude":
			tbl.Columns[i].Unit = UnitMagnitude
		}
	}
}

// Persist normalizes tbl's units and writes it as <outputDir>/catalogs/
// <basename>.fits, overwriting any existing file of that name. Writing the
// same table twice yields byte-identical files.
//
// A missing outputDir is not an error: the write is skipped with a notice and
// the table is returned unchanged, since the query result remains valid even
// if it cannot be saved.
func Persist(tbl *table.Table, basename, outputDir string) (*table.Table, error) {
	NormalizeUnits(tbl)

	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		log.WithField("dir", outputDir).Info("catalog not saved: directory does not exist")
		return tbl, nil
	}

	var dir = filepath.Join(outputDir, catalogsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalogs directory: %w", err)
	}

	var path = filepath.Join(dir, basename+".fits")
	if err := fits.WriteFile(path, tbl); err != nil {
		return nil, fmt.Errorf("writing catalog: %w", err)
	}

	log.WithFields(log.Fields{
		"path": path,
		"rows": tbl.Len(),
	}).Info("catalog saved")
	return tbl, nil
}
