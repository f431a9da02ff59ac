// Package units provides shared constants, validation, and formatting for
// speed units and lap times.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from km/h to the target units.
// Telemetry feeds report speed in km/h (kilometres per hour).
func ConvertSpeed(speedKPH float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return speedKPH
	case MPH:
		return speedKPH * 0.621371192237334
	case MPS:
		return speedKPH / 3.6
	default:
		return speedKPH
	}
}

// ConvertToKPH converts a speed in the given units back to km/h.
func ConvertToKPH(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case KMPH, KPH:
		return speed
	case MPH:
		return speed / 0.621371192237334
	case MPS:
		return speed * 3.6
	default:
		return speed
	}
}

// Label returns the display suffix for a unit, e.g. "km/h" for kph.
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case MPS:
		return "m/s"
	default:
		return "km/h"
	}
}
