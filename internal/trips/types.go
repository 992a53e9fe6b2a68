// Package trips turns a minute-sampled vessel state signal into discrete
// trips and enriches their events with telemetry.
package trips

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Vessel states as reported by the state signal
const (
	StateMotoring = "motoring"
	StateSailing  = "sailing"
	StateMoored   = "moored"
	StateAnchored = "anchored"
)

// IsUnderway reports whether a state indicates active propulsion.
// Unknown and empty states are not underway.
func IsUnderway(state string) bool {
	return state == StateMotoring || state == StateSailing
}

// Sample is a single minute-bucketed state observation. An empty State
// marks a bucket with no data.
type Sample struct {
	Time  time.Time
	State string
}

// Position is a geographic coordinate
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String returns the canonical textual form of the position, used as the
// fallback location label when geocoding fails
func (p Position) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Latitude, p.Longitude)
}

// Event is a single entry within a trip: a state change, a synthetic
// hourly checkpoint, or both, with telemetry values attached by the
// enrichment passes. Telemetry fields hold display-ready strings.
type Event struct {
	Time          time.Time `json:"time"`
	State         string    `json:"state"`
	Hourly        bool      `json:"hourly,omitempty"`
	OriginalState string    `json:"originalState,omitempty"`
	Speed         string    `json:"speed,omitempty"`
	Heading       string    `json:"heading,omitempty"`
	Barometer     string    `json:"barometer,omitempty"`
	WindSpeed     string    `json:"windSpeed,omitempty"`
	WindDirection string    `json:"windDirection,omitempty"`
	Log           string    `json:"log,omitempty"`
	Fix           string    `json:"fix,omitempty"`
	Position      *Position `json:"position,omitempty"`
}

// Trip is a maximal contiguous span of underway activity, possibly
// merged across a same-day stop
type Trip struct {
	ID            string     `json:"id"`
	Before        string     `json:"before,omitempty"`
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end,omitempty"`
	After         string     `json:"after,omitempty"`
	Events        []*Event   `json:"events"`
	StartPosition *Position  `json:"startPosition,omitempty"`
	EndPosition   *Position  `json:"endPosition,omitempty"`
	StartLocation string     `json:"startLocation,omitempty"`
	EndLocation   string     `json:"endLocation,omitempty"`

	// Locations supplied by the manual log overlay are authoritative
	// and must not be overwritten by the geocoder.
	StartLocationManual bool `json:"startLocationManual,omitempty"`
	EndLocationManual   bool `json:"endLocationManual,omitempty"`
}

func newTrip(before string, start time.Time) *Trip {
	return &Trip{
		ID:     uuid.NewString(),
		Before: before,
		Start:  start,
	}
}

// LastEvent returns the trip's most recent event, or nil if it has none
func (t *Trip) LastEvent() *Event {
	if len(t.Events) == 0 {
		return nil
	}
	return t.Events[len(t.Events)-1]
}
