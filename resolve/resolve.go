// Package resolve turns the settings' target selection into sky coordinates.
// Each selection mode (survey field, named cluster, explicit coordinates, or
// a coordinate list file) is a Strategy; dispatch happens once per run and
// every strategy produces the same Target shape, so nothing downstream
// branches on the selection mode.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/astrocat/conesearch/config"
	"github.com/astrocat/conesearch/cserr"
)

// Target is a resolved sky position: center coordinates in degrees, the
// derived output file basename (without the schema prefix or extension), and
// a human-readable summary of the resolution.
type Target struct {
	RA       float64
	Dec      float64
	Basename string
	Summary  string
}

// Strategy resolves zero or more targets for a given search radius. The
// radius participates only in basename and summary derivation.
type Strategy interface {
	Resolve(radius float64) ([]Target, error)
}

// ForSettings selects the resolution strategy for a settings document.
func ForSettings(s *config.Settings) (Strategy, error) {
	switch s.Type {
	case config.TypeField:
		id, err := fieldID(s.Object)
		if err != nil {
			return nil, err
		}
		return &FieldStrategy{TabsPath: s.TabsPath, FieldID: id}, nil
	case config.TypeCluster:
		name, ok := s.Object.(string)
		if !ok || name == "" {
			return nil, cserr.New(cserr.KindType, "cluster object must be a name, got %v", s.Object)
		}
		return &ClusterStrategy{TabsPath: s.TabsPath, Name: name}, nil
	case config.TypeCoordinates:
		ra, dec, err := parseCoordinates(s.Object)
		if err != nil {
			return nil, err
		}
		return &CoordinateStrategy{RA: ra, Dec: dec}, nil
	case config.TypeCoordinateList:
		path, ok := s.Object.(string)
		if !ok || path == "" {
			return nil, cserr.New(cserr.KindType, "coordinate list object must be a file path, got %v", s.Object)
		}
		return &CoordinateListStrategy{Path: path}, nil
	default:
		return nil, cserr.New(cserr.KindNotImplemented, "unknown target type %q", s.Type)
	}
}

// fieldID coerces the object setting to an integer field identifier.
func fieldID(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if float64(int64(x)) == x {
			return int64(x), nil
		}
	case string:
		if id, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, cserr.New(cserr.KindType, "field object must be an integer id, got %v", v)
}

// radiusSuffix derives the filename fragment for a radius: the shortest
// decimal rendering of the value with the dot replaced by "p", e.g. 0.5 →
// "0p5deg".
func radiusSuffix(radius float64) string {
	var s = strconv.FormatFloat(radius, 'g', -1, 64)
	return strings.ReplaceAll(s, ".", "p") + "deg"
}

func checkRange(ra, dec float64) error {
	if ra < 0 || ra >= 360 {
		return cserr.New(cserr.KindRange, "RA %v out of range [0, 360)", ra)
	}
	if dec < -90 || dec > 90 {
		return cserr.New(cserr.KindRange, "Dec %v out of range [-90, 90]", dec)
	}
	return nil
}

// parseCoordinates accepts either an "ra dec" string (space or comma
// separated, degrees) or a two-element numeric sequence.
func parseCoordinates(v any) (ra, dec float64, err error) {
	switch x := v.(type) {
	case string:
		var fields = strings.FieldsFunc(x, func(r rune) bool { return r == ' ' || r == ',' })
		var parts []string
		for _, f := range fields {
			if f != "" {
				parts = append(parts, f)
			}
		}
		if len(parts) != 2 {
			return 0, 0, cserr.New(cserr.KindType, "coordinates must be 'ra dec' in degrees, got %q", x)
		}
		ra, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, 0, cserr.New(cserr.KindType, "bad RA %q", parts[0])
		}
		dec, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, 0, cserr.New(cserr.KindType, "bad Dec %q", parts[1])
		}
	case []any:
		if len(x) != 2 {
			return 0, 0, cserr.New(cserr.KindType, "coordinates must have two elements, got %d", len(x))
		}
		var ok bool
		if ra, ok = asFloat(x[0]); !ok {
			return 0, 0, cserr.New(cserr.KindType, "bad RA %v", x[0])
		}
		if dec, ok = asFloat(x[1]); !ok {
			return 0, 0, cserr.New(cserr.KindType, "bad Dec %v", x[1])
		}
	default:
		return 0, 0, cserr.New(cserr.KindType, "coordinates object must be a string or pair, got %T", v)
	}
	if err := checkRange(ra, dec); err != nil {
		return 0, 0, err
	}
	return ra, dec, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// coordinateTarget builds the Target for an explicit coordinate pair.
func coordinateTarget(ra, dec, radius float64) Target {
	var fmtp = func(v float64) string {
		return strings.ReplaceAll(fmt.Sprintf("%.5f", v), ".", "p")
	}
	return Target{
		RA:       ra,
		Dec:      dec,
		Basename: fmt.Sprintf("ra%s_dec%s_%s", fmtp(ra), fmtp(dec), radiusSuffix(radius)),
		Summary:  fmt.Sprintf("Coordinates (RA %.5f, Dec %.5f), rad = %.3f deg", ra, dec, radius),
	}
}
