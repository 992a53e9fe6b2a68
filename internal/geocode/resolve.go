package geocode

import (
	"context"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/trips"
)

const earthRadiusMeters = 6371000.0

// DefaultContiguousMeters is how close a trip's start must be to the
// previous trip's end for the resolved end label to carry forward.
const DefaultContiguousMeters = 200.0

// PlaceResolver is the part of the geocoding client the trip resolver
// needs
type PlaceResolver interface {
	Resolve(ctx context.Context, position trips.Position) (*Place, error)
}

// Resolver fills in the start and end locations of a trip list.
type Resolver struct {
	Client           PlaceResolver
	ContiguousMeters float64
	Logger           *zap.SugaredLogger
}

// NewResolver returns a Resolver with the default contiguity distance
func NewResolver(client PlaceResolver, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{
		Client:           client,
		ContiguousMeters: DefaultContiguousMeters,
		Logger:           logger,
	}
}

// ResolveTrips resolves endpoint locations strictly in chronological
// order. Each trip may reuse the previous trip's resolved end location
// as its own start when the vessel hasn't moved in between, so this is
// a sequential fold over the list, never a set of parallel lookups.
// A failed lookup falls back to the coordinate's textual form and never
// aborts the remaining trips.
func (r *Resolver) ResolveTrips(ctx context.Context, tripList []*trips.Trip) {
	var previousEnd *trips.Position
	var previousLabel string

	for _, trip := range tripList {
		if !trip.StartLocationManual && trip.StartLocation == "" && trip.StartPosition != nil {
			if previousEnd != nil && previousLabel != "" && r.contiguous(*previousEnd, *trip.StartPosition) {
				trip.StartLocation = previousLabel
			} else {
				trip.StartLocation = r.resolveLabel(ctx, *trip.StartPosition)
			}
		}

		if !trip.EndLocationManual && trip.EndLocation == "" && trip.EndPosition != nil {
			trip.EndLocation = r.resolveLabel(ctx, *trip.EndPosition)
		}

		previousEnd = trip.EndPosition
		previousLabel = trip.EndLocation
	}
}

func (r *Resolver) resolveLabel(ctx context.Context, position trips.Position) string {
	place, err := r.Client.Resolve(ctx, position)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warnw("geocoding failed, falling back to coordinates", "position", position.String(), "error", err)
		}
		return position.String()
	}
	return place.Label()
}

func (r *Resolver) contiguous(a, b trips.Position) bool {
	limit := r.ContiguousMeters
	if limit <= 0 {
		limit = DefaultContiguousMeters
	}
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians()*earthRadiusMeters <= limit
}
