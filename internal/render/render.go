// Package render turns an enriched trip list into an HTML logbook.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/golang/geo/s2"

	"github.com/vesselware/voyagelog/internal/trips"
)

//go:embed assets/logbook.html.tmpl
var assets embed.FS

const earthRadiusMeters = 6371000.0
const metersPerNauticalMile = 1852.0

// Renderer renders trips with a logbook template
type Renderer struct {
	template *template.Template

	// Vessel names the boat in the logbook heading when set
	Vessel string
}

// New loads the template at path, or the embedded default template when
// path is empty
func New(path string) (*Renderer, error) {
	tmpl := template.New("logbook.html.tmpl").Funcs(template.FuncMap{
		"formatDate": formatDate,
		"formatTime": formatTime,
	})

	var err error
	if path == "" {
		tmpl, err = tmpl.ParseFS(assets, "assets/logbook.html.tmpl")
	} else {
		tmpl, err = tmpl.ParseFiles(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading logbook template: %w", err)
	}

	return &Renderer{template: tmpl}, nil
}

// Render writes the HTML logbook for the trip list
func (r *Renderer) Render(w io.Writer, tripList []*trips.Trip) error {
	data := struct {
		Vessel string
		Trips  []tripView
	}{Vessel: r.Vessel, Trips: buildViews(tripList)}

	if err := r.template.Execute(w, data); err != nil {
		return fmt.Errorf("error rendering logbook: %w", err)
	}
	return nil
}

type tripView struct {
	Start       time.Time
	End         *time.Time
	From        string
	To          string
	Events      []eventView
	DistanceRun string
	EngineHours string
}

type eventView struct {
	Time        time.Time
	Timestamp   string
	Description string
	Hourly      bool
	Speed       string
	Heading     string
	Log         string
	Wind        string
	Barometer   string
	Fix         string
	Coordinates string
}

func buildViews(tripList []*trips.Trip) []tripView {
	views := make([]tripView, 0, len(tripList))

	// The state narrative carries across trips: the first event of a
	// new trip is described relative to how the previous one ended.
	previousState := ""

	for _, trip := range tripList {
		view := tripView{
			Start:       trip.Start,
			End:         trip.End,
			From:        trip.StartLocation,
			To:          trip.EndLocation,
			DistanceRun: distanceRun(trip),
			EngineHours: engineHours(trip),
		}

		for _, event := range trip.Events {
			ev := eventView{
				Time:        event.Time,
				Timestamp:   event.Time.UTC().Format(time.RFC3339),
				Description: describeState(previousState, event.State),
				Hourly:      event.Hourly,
				Speed:       event.Speed,
				Heading:     event.Heading,
				Log:         event.Log,
				Wind:        windText(event),
				Barometer:   barometerText(event),
				Fix:         event.Fix,
			}
			if event.Position != nil {
				ev.Coordinates = event.Position.String()
			}
			previousState = event.State
			view.Events = append(view.Events, ev)
		}

		views = append(views, view)
	}

	return views
}

// describeState translates a state transition into logbook prose. An
// annotated state that is already prose falls through unchanged.
func describeState(previous, state string) string {
	switch state {
	case trips.StateSailing:
		if previous == trips.StateMotoring {
			return "Motor stopped, sails up"
		}
		return "Sails up"
	case trips.StateMotoring:
		if previous == trips.StateSailing {
			return "Motor started, sails down"
		}
		if previous == trips.StateAnchored {
			return "Motor started, anchor up"
		}
		return "Motor started"
	case trips.StateMoored:
		return "Vessel stopped"
	case trips.StateAnchored:
		return "Anchored"
	default:
		return state
	}
}

// windText combines wind speed and direction; a flat calm reading is
// noise from a becalmed sensor and shown as n/a
func windText(event *trips.Event) string {
	if event.WindSpeed == "" && event.WindDirection == "" {
		return ""
	}
	if event.WindSpeed == "0.0" && (event.WindDirection == "000" || event.WindDirection == "") {
		return "n/a"
	}
	return fmt.Sprintf("%skt %s°", event.WindSpeed, event.WindDirection)
}

// barometerText shows whole hectopascals in the table
func barometerText(event *trips.Event) string {
	if event.Barometer == "" {
		return ""
	}
	value, err := strconv.ParseFloat(event.Barometer, 64)
	if err != nil {
		return event.Barometer
	}
	return fmt.Sprintf("%d", int(value))
}

// distanceRun is the trip's distance in nautical miles, preferring the
// vessel's own log and falling back to great-circle legs between the
// recorded positions
func distanceRun(trip *trips.Trip) string {
	var first, last string
	for _, event := range trip.Events {
		if event.Log == "" {
			continue
		}
		if first == "" {
			first = event.Log
		}
		last = event.Log
	}
	if first != "" && last != "" && first != last {
		a, errA := strconv.ParseFloat(first, 64)
		b, errB := strconv.ParseFloat(last, 64)
		if errA == nil && errB == nil && b >= a {
			return fmt.Sprintf("%.1f", b-a)
		}
	}

	var meters float64
	var previous *trips.Position
	for _, event := range trip.Events {
		if event.Position == nil {
			continue
		}
		if previous != nil {
			p1 := s2.LatLngFromDegrees(previous.Latitude, previous.Longitude)
			p2 := s2.LatLngFromDegrees(event.Position.Latitude, event.Position.Longitude)
			meters += p1.Distance(p2).Radians() * earthRadiusMeters
		}
		previous = event.Position
	}
	if meters == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", meters/metersPerNauticalMile)
}

// engineHours sums the motoring spans of the trip
func engineHours(trip *trips.Trip) string {
	var total time.Duration
	for i, event := range trip.Events {
		if event.State != trips.StateMotoring {
			continue
		}
		if i+1 < len(trip.Events) {
			total += trip.Events[i+1].Time.Sub(event.Time)
		} else if trip.End != nil {
			total += trip.End.Sub(event.Time)
		}
	}
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", total.Hours())
}

func formatDate(value interface{}) string {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return ""
		}
		t = *v
	default:
		return ""
	}
	t = t.UTC()
	return fmt.Sprintf("%d.%d. %02d:%02dZ", t.Day(), int(t.Month()), t.Hour(), t.Minute())
}

func formatTime(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
