package tap

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/astrocat/conesearch/cserr"
)

// ValidateSurvey checks that a fully qualified dataset name is usable: its
// schema must appear in the local allow-list, and the full name must appear
// in the service's live schema registry. Either check failing aborts the run.
// The allow-list is consulted before any network call is made.
func ValidateSurvey(ctx context.Context, svc *Service, dataset, allowlistPath string) error {
	schemaName, _, ok := strings.Cut(dataset, ".")
	if !ok {
		return cserr.New(cserr.KindNotFound, "dataset %q is not a schema.table name", dataset)
	}

	known, err := readSurveyAllowlist(allowlistPath)
	if err != nil {
		return err
	}
	if !slices.Contains(known, schemaName) {
		return cserr.New(cserr.KindNotFound, "survey %s not available", dataset)
	}

	tables, err := svc.SchemaTables(ctx, schemaName)
	if err != nil {
		return fmt.Errorf("checking schema registry for %q: %w", schemaName, err)
	}
	if !slices.Contains(tables, dataset) {
		return cserr.New(cserr.KindNotFound, "survey %s not available", dataset)
	}

	log.WithFields(log.Fields{
		"dataset": dataset,
		"tables":  len(tables),
	}).Debug("survey validated")
	return nil
}

// readSurveyAllowlist reads the bundled list of known schema names: one name
// per line, no header, blank lines and "#" comments skipped.
func readSurveyAllowlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading survey allow-list: %w", err)
	}
	defer f.Close()

	var names []string
	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading survey allow-list: %w", err)
	}
	return names, nil
}
