// Package config defines the query settings document and its validation.
// Settings are read once at startup from a YAML file and handed to the
// pipeline as a parsed object.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/astrocat/conesearch/cserr"
)

// Target selection modes accepted by the `type` setting.
const (
	TypeField          = "SMASH field"
	TypeCluster        = "cluster"
	TypeCoordinates    = "coordinates"
	TypeCoordinateList = "coordinate list"
)

var knownTypes = []string{TypeField, TypeCluster, TypeCoordinates, TypeCoordinateList}

// MaxRadius is the cone-search area ceiling in degrees, bounding both remote
// service load and local result size.
const MaxRadius = 1.5

// DefaultMaxRecords is the row cap sent with data queries. It is treated as
// "no practical limit" for cone searches within the radius ceiling.
const DefaultMaxRecords = 100000

// Settings is the parsed query settings document.
type Settings struct {
	SchemaName string `yaml:"schema_name" json:"schema_name" jsonschema:"title=Schema Name,description=Remote dataset namespace to query (for example smash_dr2)." jsonschema_extras:"order=0"`
	TableName  string `yaml:"table_name" json:"table_name" jsonschema:"title=Table Name,description=Table within the schema to query." jsonschema_extras:"order=1"`
	Type       string `yaml:"type" json:"type" jsonschema:"title=Target Type,description=How the target position is selected.,enum=SMASH field,enum=cluster,enum=coordinates,enum=coordinate list" jsonschema_extras:"order=2"`
	Object     any    `yaml:"object" json:"object" jsonschema:"title=Object,description=Field id for SMASH field mode; cluster name for cluster mode; 'ra dec' pair in degrees for coordinates mode; path to a coordinate list file otherwise." jsonschema_extras:"order=3"`
	Radius     any    `yaml:"radius" json:"radius" jsonschema:"title=Search Radius,description=Cone-search radius in degrees. Must be > 0 and <= 1.5." jsonschema_extras:"order=4"`
	TabsPath   string `yaml:"tabs_path" json:"tabs_path" jsonschema:"title=Reference Tables Path,description=Directory holding the local field and cluster reference tables." jsonschema_extras:"order=5"`

	ServiceURL   string `yaml:"service_url,omitempty" json:"service_url,omitempty" jsonschema:"title=Service URL,description=Base URL of the TAP service. Defaults to the NOIRLab Data Lab endpoint." jsonschema_extras:"order=6"`
	SurveysPath  string `yaml:"surveys_path,omitempty" json:"surveys_path,omitempty" jsonschema:"title=Surveys Allow-list Path,description=Plain-text list of known schema names, one per line." jsonschema_extras:"order=7"`
	OutputPath   string `yaml:"output_path,omitempty" json:"output_path,omitempty" jsonschema:"title=Output Path,description=Directory under which the catalogs/ output directory is created. The write is skipped when this directory does not exist." jsonschema_extras:"order=8"`
	MaxRecords   int    `yaml:"max_records,omitempty" json:"max_records,omitempty" jsonschema:"title=Max Records,description=Row cap sent with the data query." jsonschema_extras:"order=9"`
	QueryTimeout string `yaml:"query_timeout,omitempty" json:"query_timeout,omitempty" jsonschema:"title=Query Timeout,description=Bound on each remote call as a Go duration string. Zero disables the bound." jsonschema_extras:"order=10"`
}

// Load reads and parses a settings document. Unknown keys are rejected so
// that typos in option names surface immediately rather than as silently
// ignored settings.
func Load(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	defer f.Close()

	var settings Settings
	var dec = yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return &settings, nil
}

// SetDefaults fills in default values for unset optional settings.
func (s *Settings) SetDefaults() {
	if s.ServiceURL == "" {
		s.ServiceURL = "https://datalab.noirlab.edu/tap"
	}
	if s.SurveysPath == "" {
		s.SurveysPath = "tables/available_surveys.txt"
	}
	if s.OutputPath == "" {
		s.OutputPath = "."
	}
	if s.MaxRecords == 0 {
		s.MaxRecords = DefaultMaxRecords
	}
	if s.QueryTimeout == "" {
		s.QueryTimeout = "10m"
	}
}

// Validate checks that the settings possess all required properties and that
// each holds an acceptable value.
func (s *Settings) Validate() error {
	var requiredProperties = [][]string{
		{"schema_name", s.SchemaName},
		{"table_name", s.TableName},
		{"type", s.Type},
		{"tabs_path", s.TabsPath},
	}
	for _, req := range requiredProperties {
		if req[1] == "" {
			return fmt.Errorf("missing '%s'", req[0])
		}
	}
	if !slices.Contains(knownTypes, s.Type) {
		return cserr.New(cserr.KindNotImplemented, "type must be one of %q, got %q", knownTypes, s.Type)
	}
	if s.Object == nil {
		return fmt.Errorf("missing 'object'")
	}
	if _, err := ValidateRadius(s.Radius); err != nil {
		return err
	}
	if _, err := s.Timeout(); err != nil {
		return err
	}
	return nil
}

// Dataset returns the fully qualified dataset name.
func (s *Settings) Dataset() string {
	return s.SchemaName + "." + s.TableName
}

// Timeout parses the query timeout setting.
func (s *Settings) Timeout() (time.Duration, error) {
	if s.QueryTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.QueryTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid query_timeout %q: %w", s.QueryTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("query_timeout %q cannot be negative", s.QueryTimeout)
	}
	return d, nil
}

// ValidateRadius checks a search radius value and returns it unchanged as a
// float64. The input must be numeric and satisfy 0 < radius <= MaxRadius.
func ValidateRadius(radius any) (float64, error) {
	r, ok := numeric(radius)
	if !ok {
		return 0, cserr.New(cserr.KindType, "radius must be a number, got %T", radius)
	}
	if r <= 0 || r > MaxRadius {
		return 0, cserr.New(cserr.KindRange, "radius must be > 0 and <= %v deg, got %v", MaxRadius, r)
	}
	return r, nil
}

// numeric widens the scalar types the YAML decoder can produce for a number.
func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
