// Package units converts raw SI telemetry values into the marine units
// used in the logbook, formatted for display.
package units

import (
	"fmt"
	"math"
)

const (
	metersPerSecondToKnots = 1.943844
	metersToNauticalMiles  = 0.0005399568
)

// Knots converts a speed in m/s to knots, formatted with one decimal place
func Knots(metersPerSecond float64) string {
	return fmt.Sprintf("%.1f", metersPerSecond*metersPerSecondToKnots)
}

// Hectopascals converts a pressure in Pa to hPa, formatted with two
// decimal places
func Hectopascals(pascals float64) string {
	return fmt.Sprintf("%.2f", pascals/100)
}

// NauticalMiles converts a distance in meters to nautical miles,
// formatted with one decimal place
func NauticalMiles(meters float64) string {
	return fmt.Sprintf("%.1f", meters*metersToNauticalMiles)
}

// Heading converts a heading in radians to a zero-padded whole-degree
// string. Values above 360 are wrapped back into range.
func Heading(radians float64) string {
	degrees := radians * 180 / math.Pi
	if degrees > 360 {
		degrees -= 360
	}
	return fmt.Sprintf("%03.0f", degrees)
}

// WindDirection converts a wind direction in radians to a zero-padded
// whole-degree string. Unlike Heading, no wrap is applied above 360;
// this matches the behavior observed on board and is kept until
// confirmed to be a defect.
func WindDirection(radians float64) string {
	degrees := radians * 180 / math.Pi
	return fmt.Sprintf("%03.0f", degrees)
}
