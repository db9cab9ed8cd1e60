package physics

import "github.com/lixenwraith/vi-orbit/constant"

// Units is the active length unit of all stored state
type Units uint8

const (
	Meters Units = iota
	Kilometers
)

// ParseUnits accepts "m"/"meters" and "km"/"kilometers"
func ParseUnits(s string) (Units, bool) {
	switch s {
	case "m", "meter", "meters":
		return Meters, true
	case "km", "kilometer", "kilometers":
		return Kilometers, true
	}
	return Meters, false
}

func (u Units) String() string {
	if u == Kilometers {
		return "km"
	}
	return "m"
}

// G returns the gravitational constant expressed in this unit
func (u Units) G() float64 {
	if u == Kilometers {
		return constant.GKilometers
	}
	return constant.GMeters
}

// Mu returns the standard gravitational parameter of mass M
func (u Units) Mu(mass float64) float64 {
	return u.G() * mass
}

// ThrustScale converts thrust/mass (m/s²) into this unit's acceleration
func (u Units) ThrustScale() float64 {
	if u == Kilometers {
		return 1 / constant.MetersPerKilometer
	}
	return 1
}

// RescaleFactor returns the multiplier converting stored lengths from u to target
func (u Units) RescaleFactor(target Units) float64 {
	switch {
	case u == target:
		return 1
	case u == Kilometers:
		return constant.MetersPerKilometer
	default:
		return 1 / constant.MetersPerKilometer
	}
}
