package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/fits"
	"github.com/astrocat/conesearch/table"
)

// Bundled cluster reference catalogs. Both share the same column schema
// (Names, _RAJ2000, _DEJ2000) but have distinct provenance; they are
// concatenated row-wise, Bica08 first, and that order is the documented
// tie-break for ambiguous names.
var clusterCatalogNames = []string{"Bica08-LMC.fits", "Bica20-tab2.fits"}

// ClusterStrategy resolves a named cluster from the bundled catalogs. The
// Names column of each row is a comma-separated alias set; the requested name
// must match one of the aliases, not the whole field.
type ClusterStrategy struct {
	TabsPath string
	Name     string

	clusters *table.Table // combined catalog, loaded on first use
}

func (c *ClusterStrategy) Resolve(radius float64) ([]Target, error) {
	if c.clusters == nil {
		combined, err := loadClusterCatalogs(c.TabsPath)
		if err != nil {
			return nil, err
		}
		c.clusters = combined
	}

	var nameIdx = c.clusters.ColumnIndex("Names")
	var raIdx = c.clusters.ColumnIndex("_RAJ2000")
	var decIdx = c.clusters.ColumnIndex("_DEJ2000")
	if nameIdx < 0 || raIdx < 0 || decIdx < 0 {
		return nil, fmt.Errorf("cluster catalogs lack Names/_RAJ2000/_DEJ2000 columns")
	}

	var want = strings.TrimSpace(c.Name)
	var matches []int
	for i, row := range c.clusters.Rows {
		names, _ := row[nameIdx].(string)
		for _, alias := range strings.Split(names, ",") {
			if strings.TrimSpace(alias) == want {
				matches = append(matches, i)
				break
			}
		}
	}

	if len(matches) == 0 {
		return nil, cserr.New(cserr.KindNotImplemented,
			"cluster %s not available; external catalog lookup is not implemented yet", want)
	}
	if len(matches) > 1 {
		// Deterministic tie-break: first match in catalog concatenation order.
		log.WithFields(log.Fields{
			"name":    want,
			"matches": len(matches),
		}).Warn("cluster name is ambiguous, using first catalog match")
	}

	var row = c.clusters.Rows[matches[0]]
	ra, _ := table.AsFloat64(row[raIdx])
	dec, _ := table.AsFloat64(row[decIdx])
	return []Target{{
		RA:       ra,
		Dec:      dec,
		Basename: fmt.Sprintf("%s_%s", strings.ReplaceAll(want, " ", ""), radiusSuffix(radius)),
		Summary:  fmt.Sprintf("%s (RA %.5f, Dec %.5f), rad = %.3f deg", want, ra, dec, radius),
	}}, nil
}

var clusterColumns = []string{"Names", "_RAJ2000", "_DEJ2000"}

// loadClusterCatalogs reads the bundled catalogs, projects each down to the
// shared columns, and concatenates their rows into one combined table.
func loadClusterCatalogs(tabsPath string) (*table.Table, error) {
	var combined *table.Table
	for _, name := range clusterCatalogNames {
		tbl, err := fits.ReadFile(filepath.Join(tabsPath, name))
		if err != nil {
			return nil, fmt.Errorf("loading cluster catalog %s: %w", name, err)
		}

		var indices = make([]int, len(clusterColumns))
		for i, col := range clusterColumns {
			if indices[i] = tbl.ColumnIndex(col); indices[i] < 0 {
				return nil, fmt.Errorf("cluster catalog %s lacks column %q", name, col)
			}
		}
		if combined == nil {
			combined = &table.Table{}
			for i, col := range clusterColumns {
				combined.Columns = append(combined.Columns, table.Column{
					Name: col,
					Type: tbl.Columns[indices[i]].Type,
					Unit: tbl.Columns[indices[i]].Unit,
				})
			}
		}
		for _, row := range tbl.Rows {
			var cells = make([]any, len(indices))
			for i, idx := range indices {
				cells[i] = row[idx]
			}
			combined.Rows = append(combined.Rows, cells)
		}
	}
	return combined, nil
}
