// Package pipeline orchestrates one retrieval run: validate inputs, resolve
// the target position, execute the remote cone-search query, and persist the
// normalized result.
package pipeline

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/astrocat/conesearch/catalog"
	"github.com/astrocat/conesearch/config"
	"github.com/astrocat/conesearch/resolve"
	"github.com/astrocat/conesearch/table"
	"github.com/astrocat/conesearch/tap"
)

// Run executes the full pipeline for a settings document and returns the
// last retrieved table. Steps run in strict sequence and any failure aborts
// the run before a catalog file is touched; the sole non-fatal condition is
// a missing output directory, which skips persistence.
//
// The radius check runs first so that an out-of-range radius is rejected
// before any network call is made.
func Run(ctx context.Context, settings *config.Settings) (*table.Table, error) {
	radius, err := config.ValidateRadius(settings.Radius)
	if err != nil {
		return nil, err
	}

	timeout, err := settings.Timeout()
	if err != nil {
		return nil, err
	}
	var service = tap.NewService(settings.ServiceURL, timeout, settings.MaxRecords)

	var dataset = settings.Dataset()
	if err := tap.ValidateSurvey(ctx, service, dataset, settings.SurveysPath); err != nil {
		return nil, err
	}

	strategy, err := resolve.ForSettings(settings)
	if err != nil {
		return nil, err
	}
	targets, err := strategy.Resolve(radius)
	if err != nil {
		return nil, err
	}

	var last *table.Table
	for _, target := range targets {
		log.Info(target.Summary)

		tbl, err := service.ConeSearch(ctx, dataset, target.RA, target.Dec, radius)
		if err != nil {
			return nil, err
		}

		var basename = settings.SchemaName + "_" + target.Basename
		if last, err = catalog.Persist(tbl, basename, settings.OutputPath); err != nil {
			return nil, fmt.Errorf("persisting %s: %w", basename, err)
		}
	}
	return last, nil
}
