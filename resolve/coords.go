package resolve

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/astrocat/conesearch/cserr"
)

// CoordinateStrategy is handed explicit target coordinates; no reference
// table access occurs.
type CoordinateStrategy struct {
	RA  float64
	Dec float64
}

func (c *CoordinateStrategy) Resolve(radius float64) ([]Target, error) {
	if err := checkRange(c.RA, c.Dec); err != nil {
		return nil, err
	}
	return []Target{coordinateTarget(c.RA, c.Dec, radius)}, nil
}

// CoordinateListStrategy reads a local text file of "ra dec" pairs, one per
// line, and resolves one target per entry. The pipeline then repeats the
// query and persistence steps for each target in file order.
type CoordinateListStrategy struct {
	Path string
}

func (c *CoordinateListStrategy) Resolve(radius float64) ([]Target, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("reading coordinate list: %w", err)
	}
	defer f.Close()

	var targets []Target
	var lineNo int
	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ra, dec, err := parseCoordinates(line)
		if err != nil {
			return nil, fmt.Errorf("coordinate list %s line %d: %w", c.Path, lineNo, err)
		}
		targets = append(targets, coordinateTarget(ra, dec, radius))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading coordinate list: %w", err)
	}
	if len(targets) == 0 {
		return nil, cserr.New(cserr.KindNotFound, "coordinate list %s contains no entries", c.Path)
	}
	return targets, nil
}
