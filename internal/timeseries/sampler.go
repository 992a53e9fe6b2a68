// Package timeseries provides minute-bucketed access to the telemetry
// backends the logbook pipeline can read from.
package timeseries

import (
	"context"
	"fmt"
	"time"

	"github.com/vesselware/voyagelog/internal/config"
)

// Point is a single minute bucket of a signal. Value is nil for empty
// buckets of numeric signals; Text is empty for missing string buckets.
type Point struct {
	Time  time.Time
	Value *float64
	Text  string
}

// Sampler supplies minute-bucketed series for a named signal path over a
// time range. Results are in ascending time order.
type Sampler interface {
	// QueryNumeric returns the per-minute mean of a numeric signal.
	QueryNumeric(ctx context.Context, path string, start, end time.Time) ([]Point, error)

	// QueryText returns the first string value observed in each minute.
	QueryText(ctx context.Context, path string, start, end time.Time) ([]Point, error)

	// QueryJSON returns the first JSON-encoded value observed in each
	// minute, as its raw text.
	QueryJSON(ctx context.Context, path string, start, end time.Time) ([]Point, error)

	Close() error
}

// New constructs the sampler selected by the storage configuration
func New(cfg *config.Config) (Sampler, error) {
	switch {
	case cfg.Storage.InfluxDB != nil:
		return NewInfluxSampler(cfg.Storage.InfluxDB, cfg.Vessel.Context)
	case cfg.Storage.TimescaleDB != nil:
		return NewTimescaleSampler(cfg.Storage.TimescaleDB, cfg.Vessel.Context)
	default:
		return nil, fmt.Errorf("no storage backend configured")
	}
}
