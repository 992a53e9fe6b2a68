// Package app wires the logbook pipeline together and runs it over a
// query window.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/geocode"
	"github.com/vesselware/voyagelog/internal/overlay"
	"github.com/vesselware/voyagelog/internal/timeseries"
	"github.com/vesselware/voyagelog/internal/trips"
)

// App runs the trip pipeline: segmentation, hourly checkpoints,
// telemetry enrichment, overlays and geocoding, in that order. The trip
// list is owned by the pipeline and handed from stage to stage; no
// stage keeps an alias once the next one runs.
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	// Sampler and Resolver may be preset for testing; when nil they are
	// built from the configuration.
	Sampler  timeseries.Sampler
	Resolver geocode.PlaceResolver
}

// New creates a new application instance
func New(cfg *config.Config, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the pipeline over [start, end] and returns the enriched
// trips
func (a *App) Run(ctx context.Context, start, end time.Time) ([]*trips.Trip, error) {
	cfg := a.cfg

	sampler := a.Sampler
	if sampler == nil {
		var err error
		sampler, err = timeseries.New(cfg)
		if err != nil {
			return nil, err
		}
		defer sampler.Close()
	}

	a.logger.Infow("querying state samples", "signal", cfg.Signals.State, "start", start, "end", end)
	statePoints, err := sampler.QueryText(ctx, cfg.Signals.State, start, end)
	if err != nil {
		return nil, fmt.Errorf("error querying state signal: %w", err)
	}

	samples := make([]trips.Sample, 0, len(statePoints))
	for _, p := range statePoints {
		samples = append(samples, trips.Sample{Time: p.Time, State: p.Text})
	}

	segmenter := &trips.Segmenter{
		ShortSailCutoff: time.Duration(cfg.Tuning.ShortSailCutoffMinutes) * time.Minute,
		MergeSameDay:    cfg.MergeSameDay(),
	}
	tripList := segmenter.Segment(samples)
	a.logger.Infow("segmentation complete", "samples", len(samples), "trips", len(tripList))

	trips.InjectHourlies(tripList)

	enricher := trips.NewEnricher(sampler, cfg.Signals, a.logger)
	enricher.Tolerance = time.Duration(cfg.Tuning.AssociationToleranceMinutes) * time.Minute
	enricher.FixTolerance = time.Duration(cfg.Tuning.FixToleranceMinutes) * time.Minute
	if err := enricher.EnrichAll(ctx, tripList); err != nil {
		return nil, err
	}

	manualLog, err := overlay.LoadManualLog(cfg.Overlays.ManualLog)
	if err != nil {
		return nil, err
	}
	overlay.ApplyManualLog(tripList, manualLog, time.Duration(cfg.Tuning.ManualLogToleranceMinutes)*time.Minute)

	resolver := a.Resolver
	if resolver == nil {
		client, err := geocode.NewClient(&cfg.Geocoder, a.logger)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		resolver = client
	}
	tripResolver := geocode.NewResolver(resolver, a.logger)
	tripResolver.ContiguousMeters = float64(cfg.Tuning.ContiguousMeters)
	tripResolver.ResolveTrips(ctx, tripList)

	annotations, err := overlay.LoadAnnotations(cfg.Overlays.Annotations)
	if err != nil {
		return nil, err
	}
	overlay.ApplyAnnotations(tripList, annotations)

	a.logger.Infow("pipeline complete", "trips", len(tripList))
	return tripList, nil
}
