package trips

import "time"

// InjectHourlies inserts synthetic checkpoint events on every full UTC
// hour a trip is underway, so the rendered journal has a row at least
// once an hour. Checkpoints carry the state of the preceding real event
// and are never deduplicated against it.
func InjectHourlies(trips []*Trip) {
	for _, trip := range trips {
		injectTripHourlies(trip)
	}
}

func injectTripHourlies(trip *Trip) {
	until := tripBound(trip)
	if until == nil {
		return
	}

	for hourly := trip.Start.UTC().Truncate(time.Hour).Add(time.Hour); hourly.Before(*until); hourly = hourly.Add(time.Hour) {
		// Most recent event strictly before the hour mark
		idx := -1
		for i, e := range trip.Events {
			if e.Time.Before(hourly) {
				idx = i
			}
		}
		if idx == -1 || !IsUnderway(trip.Events[idx].State) {
			// Momentarily stopped across the hour boundary (possible in
			// merged trips); no checkpoint.
			continue
		}

		checkpoint := &Event{
			Time:   hourly,
			State:  trip.Events[idx].State,
			Hourly: true,
		}
		trip.Events = append(trip.Events, nil)
		copy(trip.Events[idx+2:], trip.Events[idx+1:])
		trip.Events[idx+1] = checkpoint
	}
}

// tripBound returns the time checkpoints run up to: the trip's end, or
// the last observed event for a trip left open at the window edge.
func tripBound(trip *Trip) *time.Time {
	if trip.End != nil {
		return trip.End
	}
	if last := trip.LastEvent(); last != nil {
		t := last.Time
		return &t
	}
	return nil
}
