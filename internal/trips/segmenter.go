package trips

import (
	"time"
)

// DefaultShortSailCutoff is the longest trailing sail leg that is still
// treated as an engine-noise misclassification rather than a genuine
// return to sail. Heuristic, tunable per vessel.
const DefaultShortSailCutoff = 33 * time.Minute

// Segmenter scans an ordered sequence of state samples and produces the
// list of trips contained in it.
type Segmenter struct {
	// ShortSailCutoff configures the short-sail filter; zero selects
	// DefaultShortSailCutoff.
	ShortSailCutoff time.Duration

	// MergeSameDay reopens the previous trip when a new trip starts on
	// the same UTC calendar day as the previous trip's end.
	MergeSameDay bool
}

// NewSegmenter returns a Segmenter with the default tuning
func NewSegmenter() *Segmenter {
	return &Segmenter{
		ShortSailCutoff: DefaultShortSailCutoff,
		MergeSameDay:    true,
	}
}

func (s *Segmenter) shortSailCutoff() time.Duration {
	if s.ShortSailCutoff == 0 {
		return DefaultShortSailCutoff
	}
	return s.ShortSailCutoff
}

// Segment walks the samples once and emits trips in start order. Samples
// must be in ascending time order; empty states and repeats of the
// previous state are skipped. The final trip is left open (nil End) when
// the window ends while still underway.
func (s *Segmenter) Segment(samples []Sample) []*Trip {
	var trips []*Trip
	var lastState string
	var currentTrip *Trip

	for _, sample := range samples {
		if sample.State == "" {
			continue
		}
		if sample.State == lastState {
			continue
		}

		if IsUnderway(sample.State) && !IsUnderway(lastState) {
			// Trip start. A start on the same UTC day as the previous
			// trip's end continues that trip instead of opening a new one.
			if s.MergeSameDay && len(trips) > 0 {
				previous := trips[len(trips)-1]
				if previous.End != nil && sameUTCDay(*previous.End, sample.Time) {
					currentTrip = previous
					trips = trips[:len(trips)-1]
					currentTrip.End = nil
					currentTrip.After = ""
					currentTrip.Events = append(currentTrip.Events, &Event{
						Time:  sample.Time,
						State: sample.State,
					})
					lastState = sample.State
					continue
				}
			}
			currentTrip = newTrip(lastState, sample.Time)
		}

		if !IsUnderway(sample.State) && IsUnderway(lastState) {
			// Trip end
			s.dropShortSail(currentTrip, sample.Time)
			end := sample.Time
			currentTrip.End = &end
			currentTrip.After = sample.State
			currentTrip.Events = append(currentTrip.Events, &Event{
				Time:  sample.Time,
				State: sample.State,
			})
			trips = append(trips, currentTrip)
			currentTrip = nil
			lastState = sample.State
			continue
		}

		if currentTrip != nil {
			s.dropShortSail(currentTrip, sample.Time)
			if last := currentTrip.LastEvent(); last == nil || last.State != sample.State {
				currentTrip.Events = append(currentTrip.Events, &Event{
					Time:  sample.Time,
					State: sample.State,
				})
			}
		}
		lastState = sample.State
	}

	if currentTrip != nil {
		// Window ended while underway; keep the trip open
		trips = append(trips, currentTrip)
	}

	return trips
}

// dropShortSail rejects a trailing "sailing" false positive: a short
// sailing entry right after motoring, typically 10-25 minutes before
// stopping, is engine noise rather than sailing.
func (s *Segmenter) dropShortSail(trip *Trip, now time.Time) {
	if trip == nil || len(trip.Events) < 2 {
		return
	}
	last := trip.Events[len(trip.Events)-1]
	previous := trip.Events[len(trip.Events)-2]
	if last.State != StateSailing || previous.State != StateMotoring {
		return
	}
	if minutesElapsed(now, last.Time) <= int(s.shortSailCutoff().Minutes()) {
		trip.Events = trip.Events[:len(trip.Events)-1]
	}
}

func minutesElapsed(to, from time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		d = -d
	}
	return int(d / time.Minute)
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
