// Package tap talks to an IVOA TAP service: it renders ADQL from templates,
// submits synchronous queries, and decodes the VOTable responses into tables.
package tap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/astrocat/conesearch/cserr"
	"github.com/astrocat/conesearch/table"
	"github.com/astrocat/conesearch/votable"
)

// DefaultServiceURL is the NOIRLab Data Lab TAP endpoint.
const DefaultServiceURL = "https://datalab.noirlab.edu/tap"

var templateFuncs = template.FuncMap{
	"quoteLiteral": quoteLiteral,
}

// coneSearchTemplate selects all rows whose position lies within the search
// radius of the target point, using a radial great-circle containment test
// rather than a box filter. Coordinates render at 5 decimal places and the
// radius at 3, matching the service's documented precision.
var coneSearchTemplate = template.Must(template.New("cone-search").Funcs(templateFuncs).Parse(`SELECT *
FROM {{.Dataset}}
WHERE 't' = Q3C_RADIAL_QUERY(ra, dec, {{printf "%.5f" .RA}}, {{printf "%.5f" .Dec}}, {{printf "%.3f" .Radius}})`))

// schemaTablesTemplate lists the fully qualified table names visible in a
// schema of the service's registry.
var schemaTablesTemplate = template.Must(template.New("schema-tables").Funcs(templateFuncs).Parse(`SELECT table_name
FROM tap_schema.tables
WHERE schema_name = {{quoteLiteral .SchemaName}}`))

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Service is a client for one TAP endpoint. Queries are synchronous: each
// call performs a single HTTP round trip and waits for the full result. There
// is no retry; a failed or partial response is fatal for the run.
type Service struct {
	endpoint   string
	maxRecords int
	client     *http.Client
}

// NewService returns a client for the given endpoint. A zero timeout leaves
// remote calls unbounded, which reproduces the original tool's behavior of
// blocking indefinitely on a stalled service.
func NewService(endpoint string, timeout time.Duration, maxRecords int) *Service {
	return &Service{
		endpoint:   strings.TrimRight(endpoint, "/"),
		maxRecords: maxRecords,
		client:     &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the service base URL.
func (s *Service) Endpoint() string { return s.endpoint }

// RenderConeSearch renders the cone-search ADQL for a dataset and target.
func RenderConeSearch(dataset string, ra, dec, radius float64) (string, error) {
	var buf = new(strings.Builder)
	var err = coneSearchTemplate.Execute(buf, map[string]any{
		"Dataset": dataset,
		"RA":      ra,
		"Dec":     dec,
		"Radius":  radius,
	})
	if err != nil {
		return "", fmt.Errorf("error generating cone-search query: %w", err)
	}
	return buf.String(), nil
}

// RenderSchemaTables renders the registry metadata ADQL for a schema.
func RenderSchemaTables(schemaName string) (string, error) {
	var buf = new(strings.Builder)
	var err = schemaTablesTemplate.Execute(buf, map[string]any{"SchemaName": schemaName})
	if err != nil {
		return "", fmt.Errorf("error generating schema-tables query: %w", err)
	}
	return buf.String(), nil
}

// ConeSearch runs the cone-search data query for a dataset and target,
// returning the full result table. Elapsed wall-clock time is logged for
// observability.
func (s *Service) ConeSearch(ctx context.Context, dataset string, ra, dec, radius float64) (*table.Table, error) {
	query, err := RenderConeSearch(dataset, ra, dec, radius)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"dataset": dataset,
		"ra":      fmt.Sprintf("%.5f", ra),
		"dec":     fmt.Sprintf("%.5f", dec),
		"radius":  fmt.Sprintf("%.3f", radius),
	}).Info("executing cone-search query")

	var start = time.Now()
	tbl, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	var elapsed = time.Since(start)

	// Value-only coordinate reconciliation pass over the returned rows. The
	// extracted values are reported but never filtered on.
	if ras, err := tbl.Float64s("ra"); err != nil {
		log.WithField("reason", err).Debug("skipping coordinate reconciliation pass")
	} else if len(ras) > 0 {
		var min, max = ras[0], ras[0]
		for _, v := range ras[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		log.WithFields(log.Fields{
			"raMin": min,
			"raMax": max,
		}).Debug("reconciled returned coordinate range")
	}

	log.WithFields(log.Fields{
		"rows":    tbl.Len(),
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}).Info("query complete")

	return tbl, nil
}

// SchemaTables runs the registry metadata query and returns the fully
// qualified table names visible in the schema.
func (s *Service) SchemaTables(ctx context.Context, schemaName string) ([]string, error) {
	query, err := RenderSchemaTables(schemaName)
	if err != nil {
		return nil, err
	}
	tbl, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}

	var idx = tbl.ColumnIndex("table_name")
	if idx < 0 {
		return nil, cserr.New(cserr.KindRemote, "registry response has no table_name column")
	}
	var names = make([]string, 0, tbl.Len())
	for _, row := range tbl.Rows {
		if name, ok := row[idx].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// query submits one synchronous ADQL query and decodes the VOTable response.
func (s *Service) query(ctx context.Context, adql string) (*table.Table, error) {
	var form = url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "votable")
	form.Set("MAXREC", strconv.Itoa(s.maxRecords))
	form.Set("QUERY", adql)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/sync",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, cserr.Wrap(cserr.KindRemote, err, "query request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, cserr.New(cserr.KindRemote, "query returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return votable.Decode(resp.Body)
}
