package resolve

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/astrocat/conesearch/config"
	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/fits"
	"github.com/astrocat/conesearch/table"
)

func TestMain(m *testing.M) {
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	os.Exit(m.Run())
}

// writeFieldTable builds a reference table of field centers in a temp
// directory and returns the directory path.
func writeFieldTable(t *testing.T) string {
	t.Helper()
	var dir = t.TempDir()
	var tbl = table.New(
		table.Column{Name: "fieldid", Type: table.Int32},
		table.Column{Name: "ra", Type: table.Float64, Unit: "deg"},
		table.Column{Name: "dec", Type: table.Float64, Unit: "deg"},
	)
	require.NoError(t, tbl.AppendRow(int32(41), 9.5, -66.0))
	require.NoError(t, tbl.AppendRow(int32(42), 10.12345, -65.54321))
	require.NoError(t, fits.WriteFile(filepath.Join(dir, fieldTableName), tbl))
	return dir
}

// writeClusterCatalogs builds both bundled cluster catalogs in a temp
// directory. The name appears in both catalogs so ambiguity handling can be
// exercised with an alias that is unique to the second catalog.
func writeClusterCatalogs(t *testing.T) string {
	t.Helper()
	var dir = t.TempDir()

	var bica08 = table.New(
		table.Column{Name: "Names", Type: table.String},
		table.Column{Name: "_RAJ2000", Type: table.Float64, Unit: "deg"},
		table.Column{Name: "_DEJ2000", Type: table.Float64, Unit: "deg"},
	)
	require.NoError(t, bica08.AppendRow("NGC 104, 47 Tuc", 6.02363, -72.08128))
	require.NoError(t, bica08.AppendRow("NGC 1850", 77.18625, -68.76306))
	require.NoError(t, fits.WriteFile(filepath.Join(dir, clusterCatalogNames[0]), bica08))

	var bica20 = table.New(
		table.Column{Name: "Names", Type: table.String},
		table.Column{Name: "_RAJ2000", Type: table.Float64, Unit: "deg"},
		table.Column{Name: "_DEJ2000", Type: table.Float64, Unit: "deg"},
	)
	require.NoError(t, bica20.AppendRow("NGC 1850, BRHT 5b", 77.19000, -68.76500))
	require.NoError(t, bica20.AppendRow("SL 13", 67.36417, -74.14889))
	require.NoError(t, fits.WriteFile(filepath.Join(dir, clusterCatalogNames[1]), bica20))
	return dir
}

func TestFieldResolutionIsPure(t *testing.T) {
	var dir = writeFieldTable(t)

	var first = &FieldStrategy{TabsPath: dir, FieldID: 42}
	a, err := first.Resolve(0.5)
	require.NoError(t, err)

	var second = &FieldStrategy{TabsPath: dir, FieldID: 42}
	b, err := second.Resolve(0.5)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Len(t, a, 1)
	require.Equal(t, 10.12345, a[0].RA)
	require.Equal(t, -65.54321, a[0].Dec)
	require.Equal(t, "TAP_f42_0p5deg", a[0].Basename)
	require.Equal(t, "Field 42 (RA 10.12345, DEC -65.54321), rad = 0.500 deg", a[0].Summary)
}

func TestFieldNotFound(t *testing.T) {
	var strategy = &FieldStrategy{TabsPath: writeFieldTable(t), FieldID: 999}
	_, err := strategy.Resolve(0.5)
	require.Error(t, err)
	require.True(t, cserr.IsKind(err, cserr.KindNotFound))
}

func TestClusterAliasMatching(t *testing.T) {
	var dir = writeClusterCatalogs(t)

	byCatalogName, err := (&ClusterStrategy{TabsPath: dir, Name: "NGC 104"}).Resolve(0.2)
	require.NoError(t, err)
	byAlias, err := (&ClusterStrategy{TabsPath: dir, Name: "47 Tuc"}).Resolve(0.2)
	require.NoError(t, err)

	require.Equal(t, byCatalogName[0].RA, byAlias[0].RA)
	require.Equal(t, byCatalogName[0].Dec, byAlias[0].Dec)
	require.Equal(t, "NGC104_0p2deg", byCatalogName[0].Basename)
	require.Equal(t, "47Tuc_0p2deg", byAlias[0].Basename)
}

func TestClusterNotFound(t *testing.T) {
	var strategy = &ClusterStrategy{TabsPath: writeClusterCatalogs(t), Name: "Pal 13"}
	_, err := strategy.Resolve(0.2)
	require.Error(t, err)
	require.True(t, cserr.IsKind(err, cserr.KindNotImplemented))
}

// TestClusterAmbiguityFirstMatch verifies the documented tie-break: a name
// matching rows in both catalogs resolves to the first match in
// concatenation order.
func TestClusterAmbiguityFirstMatch(t *testing.T) {
	var targets, err = (&ClusterStrategy{TabsPath: writeClusterCatalogs(t), Name: "NGC 1850"}).Resolve(0.2)
	require.NoError(t, err)
	require.Equal(t, 77.18625, targets[0].RA)
	require.Equal(t, -68.76306, targets[0].Dec)
}

func TestCoordinateStrategy(t *testing.T) {
	targets, err := (&CoordinateStrategy{RA: 10.12345, Dec: -65.54321}).Resolve(0.5)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, "ra10p12345_dec-65p54321_0p5deg", targets[0].Basename)

	_, err = (&CoordinateStrategy{RA: 361, Dec: 0}).Resolve(0.5)
	require.True(t, cserr.IsKind(err, cserr.KindRange))
	_, err = (&CoordinateStrategy{RA: 0, Dec: -91}).Resolve(0.5)
	require.True(t, cserr.IsKind(err, cserr.KindRange))
}

func TestCoordinateListStrategy(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "coords.txt")
	require.NoError(t, os.WriteFile(path, []byte(`# targets
10.12345 -65.54321
11.00000, -64.00000
`), 0o644))

	targets, err := (&CoordinateListStrategy{Path: path}).Resolve(0.5)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, 10.12345, targets[0].RA)
	require.Equal(t, 11.0, targets[1].RA)
}

func TestCoordinateListEmpty(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "coords.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0o644))
	_, err := (&CoordinateListStrategy{Path: path}).Resolve(0.5)
	require.True(t, cserr.IsKind(err, cserr.KindNotFound))
}

func TestForSettings(t *testing.T) {
	for _, tc := range []struct {
		name     string
		settings config.Settings
		want     any
		fails    bool
		kind     cserr.Kind
	}{
		{
			name:     "Field",
			settings: config.Settings{Type: config.TypeField, Object: 42, TabsPath: "tables"},
			want:     &FieldStrategy{TabsPath: "tables", FieldID: 42},
		},
		{
			name:     "FieldFromString",
			settings: config.Settings{Type: config.TypeField, Object: "42", TabsPath: "tables"},
			want:     &FieldStrategy{TabsPath: "tables", FieldID: 42},
		},
		{
			name:     "FieldFractional",
			settings: config.Settings{Type: config.TypeField, Object: 42.5, TabsPath: "tables"},
			fails:    true,
			kind:     cserr.KindType,
		},
		{
			name:     "Cluster",
			settings: config.Settings{Type: config.TypeCluster, Object: "NGC 419", TabsPath: "tables"},
			want:     &ClusterStrategy{TabsPath: "tables", Name: "NGC 419"},
		},
		{
			name:     "Coordinates",
			settings: config.Settings{Type: config.TypeCoordinates, Object: "10.5 -65.25"},
			want:     &CoordinateStrategy{RA: 10.5, Dec: -65.25},
		},
		{
			name:     "CoordinatePair",
			settings: config.Settings{Type: config.TypeCoordinates, Object: []any{10.5, -65.25}},
			want:     &CoordinateStrategy{RA: 10.5, Dec: -65.25},
		},
		{
			name:     "CoordinateList",
			settings: config.Settings{Type: config.TypeCoordinateList, Object: "coords.txt"},
			want:     &CoordinateListStrategy{Path: "coords.txt"},
		},
		{
			name:     "UnknownType",
			settings: config.Settings{Type: "galaxy", Object: "M31"},
			fails:    true,
			kind:     cserr.KindNotImplemented,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			strategy, err := ForSettings(&tc.settings)
			if tc.fails {
				require.Error(t, err)
				require.True(t, cserr.IsKind(err, tc.kind))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, strategy)
		})
	}
}

func TestRadiusSuffix(t *testing.T) {
	require.Equal(t, "0p5deg", radiusSuffix(0.5))
	require.Equal(t, "1deg", radiusSuffix(1))
	require.Equal(t, "0p25deg", radiusSuffix(0.25))
	require.Equal(t, "1p5deg", radiusSuffix(1.5))
}
