package trips

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/timeseries"
	"github.com/vesselware/voyagelog/internal/units"
)

// DefaultFixTolerance is the association window for the GNSS fix type,
// which updates far less often than the minutely signals.
const DefaultFixTolerance = 30 * time.Minute

// Enricher fetches the numeric telemetry series for a trip window and
// attaches their values to the trip events.
type Enricher struct {
	Sampler      timeseries.Sampler
	Signals      config.SignalsConfig
	Tolerance    time.Duration
	FixTolerance time.Duration
	Logger       *zap.SugaredLogger
}

// NewEnricher returns an Enricher with the default tolerances
func NewEnricher(sampler timeseries.Sampler, signals config.SignalsConfig, logger *zap.SugaredLogger) *Enricher {
	return &Enricher{
		Sampler:      sampler,
		Signals:      signals,
		Tolerance:    DefaultTolerance,
		FixTolerance: DefaultFixTolerance,
		Logger:       logger,
	}
}

type series struct {
	path   string
	kind   string // "numeric", "text" or "json"
	points []timeseries.Point
}

// EnrichAll queries every telemetry signal over the window spanned by
// the trips and associates the values onto trip events. The signal
// queries are independent and run concurrently; association happens
// sequentially per signal once all series are complete. Any malformed
// series is fatal for the run.
func (e *Enricher) EnrichAll(ctx context.Context, trips []*Trip) error {
	if len(trips) == 0 {
		return nil
	}

	start := trips[0].Start
	endPtr := tripBound(trips[len(trips)-1])
	if endPtr == nil {
		return nil
	}
	end := *endPtr

	fetch := []*series{
		{path: e.Signals.Speed, kind: "numeric"},
		{path: e.Signals.Heading, kind: "numeric"},
		{path: e.Signals.Pressure, kind: "numeric"},
		{path: e.Signals.WindSpeed, kind: "numeric"},
		{path: e.Signals.WindDirection, kind: "numeric"},
		{path: e.Signals.Log, kind: "numeric"},
		{path: e.Signals.Fix, kind: "text"},
		{path: e.Signals.Position, kind: "json"},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(fetch))
	for i, s := range fetch {
		wg.Add(1)
		go func(i int, s *series) {
			defer wg.Done()
			var err error
			switch s.kind {
			case "text":
				s.points, err = e.Sampler.QueryText(ctx, s.path, start, end)
			case "json":
				s.points, err = e.Sampler.QueryJSON(ctx, s.path, start, end)
			default:
				s.points, err = e.Sampler.QueryNumeric(ctx, s.path, start, end)
			}
			errs[i] = err
		}(i, s)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("error fetching %s: %w", fetch[i].path, err)
		}
	}

	byPath := make(map[string]*series, len(fetch))
	for _, s := range fetch {
		byPath[s.path] = s
	}

	Associate(trips, numericDatapoints(byPath[e.Signals.Speed].points, units.Knots), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.Speed = p.Value })
	Associate(trips, numericDatapoints(byPath[e.Signals.Heading].points, units.Heading), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.Heading = p.Value })
	Associate(trips, numericDatapoints(byPath[e.Signals.Pressure].points, units.Hectopascals), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.Barometer = p.Value })
	Associate(trips, numericDatapoints(byPath[e.Signals.WindSpeed].points, units.Knots), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.WindSpeed = p.Value })
	Associate(trips, numericDatapoints(byPath[e.Signals.WindDirection].points, units.WindDirection), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.WindDirection = p.Value })
	Associate(trips, numericDatapoints(byPath[e.Signals.Log].points, units.NauticalMiles), e.Tolerance,
		func(ev *Event, p Datapoint) { ev.Log = p.Value })
	Associate(trips, textDatapoints(byPath[e.Signals.Fix].points), e.FixTolerance,
		func(ev *Event, p Datapoint) { ev.Fix = p.Value })

	positions, err := positionDatapoints(byPath[e.Signals.Position].points)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", e.Signals.Position, err)
	}
	Associate(trips, positions, e.Tolerance,
		func(ev *Event, p Datapoint) { ev.Position = p.Position })

	// Trip endpoints come from the first and last event, not from an
	// independent query.
	for _, trip := range trips {
		if len(trip.Events) == 0 {
			continue
		}
		trip.StartPosition = trip.Events[0].Position
		trip.EndPosition = trip.Events[len(trip.Events)-1].Position
	}

	if e.Logger != nil {
		e.Logger.Debugw("telemetry enrichment complete", "trips", len(trips), "window_start", start, "window_end", end)
	}

	return nil
}

// numericDatapoints converts a numeric series with the given unit
// conversion, skipping empty buckets
func numericDatapoints(points []timeseries.Point, convert func(float64) string) []Datapoint {
	var out []Datapoint
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		out = append(out, Datapoint{Time: p.Time, Value: convert(*p.Value)})
	}
	return out
}

// textDatapoints passes a categorical series through unconverted
func textDatapoints(points []timeseries.Point) []Datapoint {
	var out []Datapoint
	for _, p := range points {
		if p.Text == "" {
			continue
		}
		out = append(out, Datapoint{Time: p.Time, Value: p.Text})
	}
	return out
}

// positionDatapoints decodes JSON-encoded coordinates
func positionDatapoints(points []timeseries.Point) ([]Datapoint, error) {
	var out []Datapoint
	for _, p := range points {
		if p.Text == "" {
			continue
		}
		var pos Position
		if err := json.Unmarshal([]byte(p.Text), &pos); err != nil {
			return nil, fmt.Errorf("malformed position payload %q: %w", p.Text, err)
		}
		out = append(out, Datapoint{Time: p.Time, Position: &pos})
	}
	return out, nil
}
