package trips

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func speedSetter(e *Event, p Datapoint) { e.Speed = p.Value }

func TestAssociateAttachesWithinTolerance(t *testing.T) {
	trip := closedTrip(t, []*Event{
		{Time: at(t, "2022-05-14T09:00:00Z"), State: StateMotoring},
		{Time: at(t, "2022-05-14T11:00:00Z"), State: StateMoored},
	})

	points := []Datapoint{
		{Time: at(t, "2022-05-14T09:01:00Z"), Value: "5.1"},
		{Time: at(t, "2022-05-14T10:00:00Z"), Value: "6.0"},
		{Time: at(t, "2022-05-14T11:00:00Z"), Value: "0.2"},
	}

	Associate([]*Trip{trip}, points, DefaultTolerance, speedSetter)

	if trip.Events[0].Speed != "5.1" {
		t.Errorf("opening event speed = %q, want 5.1", trip.Events[0].Speed)
	}
	if trip.Events[1].Speed != "0.2" {
		t.Errorf("closing event speed = %q, want 0.2", trip.Events[1].Speed)
	}
}

func TestAssociateToleranceBoundary(t *testing.T) {
	tests := []struct {
		name      string
		pointTime string
		attached  bool
	}{
		{"one minute off attaches", "2022-05-14T09:01:00Z", true},
		{"just under two minutes attaches", "2022-05-14T09:01:59Z", true},
		{"exactly two minutes does not attach", "2022-05-14T09:02:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := closedTrip(t, []*Event{
				{Time: at(t, "2022-05-14T09:00:00Z"), State: StateMotoring},
				{Time: at(t, "2022-05-14T12:00:00Z"), State: StateMoored},
			})
			Associate([]*Trip{trip}, []Datapoint{{Time: at(t, tt.pointTime), Value: "4.2"}}, DefaultTolerance, speedSetter)
			got := trip.Events[0].Speed != ""
			if got != tt.attached {
				t.Errorf("attached = %v, want %v", got, tt.attached)
			}
		})
	}
}

func TestAssociateAdvancesCursorAcrossTrips(t *testing.T) {
	first := closedTrip(t, []*Event{
		{Time: at(t, "2022-05-14T09:00:00Z"), State: StateMotoring},
		{Time: at(t, "2022-05-14T10:00:00Z"), State: StateMoored},
	})
	second := closedTrip(t, []*Event{
		{Time: at(t, "2022-05-15T09:00:00Z"), State: StateSailing},
		{Time: at(t, "2022-05-15T10:00:00Z"), State: StateMoored},
	})

	points := []Datapoint{
		{Time: at(t, "2022-05-14T09:00:00Z"), Value: "5.0"},
		{Time: at(t, "2022-05-14T10:00:00Z"), Value: "0.1"},
		{Time: at(t, "2022-05-15T09:00:00Z"), Value: "6.5"},
		{Time: at(t, "2022-05-15T10:00:00Z"), Value: "0.3"},
	}

	Associate([]*Trip{first, second}, points, DefaultTolerance, speedSetter)

	if first.Events[1].Speed != "0.1" {
		t.Errorf("first trip closing speed = %q, want 0.1", first.Events[1].Speed)
	}
	if second.Events[0].Speed != "6.5" {
		t.Errorf("second trip opening speed = %q, want 6.5", second.Events[0].Speed)
	}
	if second.Events[1].Speed != "0.3" {
		t.Errorf("second trip closing speed = %q, want 0.3", second.Events[1].Speed)
	}
}

func TestAssociateDropsUnmatchedPoints(t *testing.T) {
	trip := closedTrip(t, []*Event{
		{Time: at(t, "2022-05-14T09:00:00Z"), State: StateMotoring},
		{Time: at(t, "2022-05-14T10:00:00Z"), State: StateMoored},
	})

	points := []Datapoint{
		// Before the trip entirely
		{Time: at(t, "2022-05-14T06:00:00Z"), Value: "9.9"},
		// Between events, outside tolerance of both
		{Time: at(t, "2022-05-14T09:30:00Z"), Value: "8.8"},
	}

	Associate([]*Trip{trip}, points, DefaultTolerance, speedSetter)

	for _, e := range trip.Events {
		if e.Speed != "" {
			t.Errorf("event at %v unexpectedly got speed %q", e.Time, e.Speed)
		}
	}
}

func TestAssociateIsIdempotent(t *testing.T) {
	build := func() []*Trip {
		return []*Trip{closedTrip(t, []*Event{
			{Time: at(t, "2022-05-14T09:00:00Z"), State: StateMotoring},
			{Time: at(t, "2022-05-14T10:00:00Z"), State: StateSailing},
			{Time: at(t, "2022-05-14T11:00:00Z"), State: StateMoored},
		})}
	}
	points := []Datapoint{
		{Time: at(t, "2022-05-14T09:00:00Z"), Value: "5.0"},
		{Time: at(t, "2022-05-14T10:00:30Z"), Value: "6.2"},
		{Time: at(t, "2022-05-14T11:00:00Z"), Value: "0.0"},
	}

	once := build()
	Associate(once, points, DefaultTolerance, speedSetter)

	twice := build()
	Associate(twice, points, DefaultTolerance, speedSetter)
	Associate(twice, points, DefaultTolerance, speedSetter)

	if diff := cmp.Diff(once[0].Events, twice[0].Events); diff != "" {
		t.Errorf("re-running association changed results (-once +twice):\n%s", diff)
	}
}

func TestAssociateEmptyTrips(t *testing.T) {
	// Must not panic
	Associate(nil, []Datapoint{{Time: time.Now(), Value: "1.0"}}, DefaultTolerance, speedSetter)
	Associate([]*Trip{}, nil, DefaultTolerance, speedSetter)
}
