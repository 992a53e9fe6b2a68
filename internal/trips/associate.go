package trips

import "time"

// DefaultTolerance is the association window for minute-bucketed
// telemetry signals.
const DefaultTolerance = 2 * time.Minute

// Datapoint is a converted telemetry value ready to be attached to an
// event. Exactly one of Value or Position is set.
type Datapoint struct {
	Time     time.Time
	Value    string
	Position *Position
}

// Associate attaches datapoints to trip events by nearest-time matching.
// A single cursor advances across the trips in time order: each point is
// attached to every event of the current trip within tolerance, and once
// a point lands on the trip's last event the cursor moves to the next
// trip. Points that match no event are dropped; this is deliberately a
// nearest-neighbor association, not an interpolation, so sparse series
// leave fields unset rather than guessing.
func Associate(trips []*Trip, points []Datapoint, tolerance time.Duration, set func(*Event, Datapoint)) {
	if len(trips) == 0 {
		return
	}

	cursor := 0
	for _, point := range points {
		if cursor >= len(trips) {
			return
		}
		trip := trips[cursor]
		for i, event := range trip.Events {
			if !withinTolerance(point.Time, event.Time, tolerance) {
				continue
			}
			set(event, point)
			if i == len(trip.Events)-1 {
				// Trip ends here
				cursor++
				break
			}
		}
	}
}

func withinTolerance(a, b time.Time, tolerance time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < tolerance
}
