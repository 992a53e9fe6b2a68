package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vesselware/voyagelog/internal/trips"
)

type fakeResolver struct {
	places map[string]*Place
	calls  []string
}

func (f *fakeResolver) Resolve(_ context.Context, position trips.Position) (*Place, error) {
	key := position.String()
	f.calls = append(f.calls, key)
	if place, ok := f.places[key]; ok {
		return place, nil
	}
	return nil, ErrNotFound
}

func pos(lat, lon float64) *trips.Position {
	return &trips.Position{Latitude: lat, Longitude: lon}
}

func tripBetween(start, end *trips.Position) *trips.Trip {
	endTime := time.Date(2022, 5, 14, 14, 0, 0, 0, time.UTC)
	return &trips.Trip{
		Start:         endTime.Add(-4 * time.Hour),
		End:           &endTime,
		StartPosition: start,
		EndPosition:   end,
	}
}

func TestResolveTripsFallsBackToCoordinates(t *testing.T) {
	trip := tripBetween(pos(59.0, 10.5), pos(59.2, 10.6))
	resolver := NewResolver(&fakeResolver{}, nil)

	resolver.ResolveTrips(context.Background(), []*trips.Trip{trip})

	if trip.StartLocation != "59.00000, 10.50000" {
		t.Errorf("StartLocation = %q, want coordinate fallback", trip.StartLocation)
	}
	if trip.EndLocation != "59.20000, 10.60000" {
		t.Errorf("EndLocation = %q, want coordinate fallback", trip.EndLocation)
	}
}

func TestResolveTripsUsesPlaceLabels(t *testing.T) {
	start := pos(59.43, 10.66)
	end := pos(59.12, 10.45)
	fake := &fakeResolver{places: map[string]*Place{
		start.String(): {DisplayName: "a", Address: Address{Village: "Son"}},
		end.String():   {DisplayName: "b", Address: Address{City: "Tønsberg"}},
	}}

	trip := tripBetween(start, end)
	NewResolver(fake, nil).ResolveTrips(context.Background(), []*trips.Trip{trip})

	if trip.StartLocation != "Son" {
		t.Errorf("StartLocation = %q, want Son", trip.StartLocation)
	}
	if trip.EndLocation != "Tønsberg" {
		t.Errorf("EndLocation = %q, want Tønsberg", trip.EndLocation)
	}
}

func TestResolveTripsPropagatesContiguousEndLocation(t *testing.T) {
	harbor := pos(59.43, 10.66)
	// Second trip starts 50-ish meters from where the first one ended
	nearHarbor := pos(59.4304, 10.66)
	sea := pos(59.0, 10.5)

	fake := &fakeResolver{places: map[string]*Place{
		harbor.String(): {DisplayName: "h", Address: Address{Village: "Son"}},
		sea.String():    {DisplayName: "s", Address: Address{City: "Moss"}},
	}}

	first := tripBetween(sea, harbor)
	second := tripBetween(nearHarbor, sea)

	NewResolver(fake, nil).ResolveTrips(context.Background(), []*trips.Trip{first, second})

	if second.StartLocation != "Son" {
		t.Errorf("second trip StartLocation = %q, want propagated %q", second.StartLocation, "Son")
	}
	for _, call := range fake.calls {
		if call == nearHarbor.String() {
			t.Error("contiguous start position was geocoded instead of reusing the previous end location")
		}
	}
}

func TestResolveTripsDistantStartIsResolvedIndependently(t *testing.T) {
	harbor := pos(59.43, 10.66)
	farAway := pos(58.9, 9.9)

	fake := &fakeResolver{places: map[string]*Place{
		harbor.String():  {DisplayName: "h", Address: Address{Village: "Son"}},
		farAway.String(): {DisplayName: "f", Address: Address{Village: "Risør"}},
	}}

	first := tripBetween(pos(59.0, 10.5), harbor)
	second := tripBetween(farAway, pos(59.0, 10.5))

	NewResolver(fake, nil).ResolveTrips(context.Background(), []*trips.Trip{first, second})

	if second.StartLocation != "Risør" {
		t.Errorf("second trip StartLocation = %q, want Risør", second.StartLocation)
	}
}

func TestResolveTripsSkipsManualLocations(t *testing.T) {
	trip := tripBetween(pos(59.0, 10.5), pos(59.2, 10.6))
	trip.StartLocation = "Hand-written harbor"
	trip.StartLocationManual = true

	fake := &fakeResolver{}
	NewResolver(fake, nil).ResolveTrips(context.Background(), []*trips.Trip{trip})

	if trip.StartLocation != "Hand-written harbor" {
		t.Errorf("manual StartLocation was overwritten: %q", trip.StartLocation)
	}
	for _, call := range fake.calls {
		if call == trip.StartPosition.String() {
			t.Error("manual start position was geocoded")
		}
	}
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, trips.Position) (*Place, error) {
	return nil, errors.New("service unavailable")
}

func TestResolveTripsFailureDoesNotAbortLaterTrips(t *testing.T) {
	first := tripBetween(pos(59.0, 10.5), pos(59.2, 10.6))
	second := tripBetween(pos(59.3, 10.7), pos(59.4, 10.8))

	NewResolver(failingResolver{}, nil).ResolveTrips(context.Background(), []*trips.Trip{first, second})

	if second.StartLocation == "" || second.EndLocation == "" {
		t.Error("later trips were not resolved after an earlier failure")
	}
	if second.EndLocation != "59.40000, 10.80000" {
		t.Errorf("second EndLocation = %q, want coordinate fallback", second.EndLocation)
	}
}

func TestResolveTripsMissingPositions(t *testing.T) {
	// Trips without positions (no events in the window) are left alone
	trip := tripBetween(nil, nil)
	NewResolver(&fakeResolver{}, nil).ResolveTrips(context.Background(), []*trips.Trip{trip})
	if trip.StartLocation != "" || trip.EndLocation != "" {
		t.Errorf("locations set without positions: %q / %q", trip.StartLocation, trip.EndLocation)
	}
}
