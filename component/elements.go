package component

// Elements are osculating Keplerian elements relative to the parent body
// Angles in radians, semi-major axis in the active length unit
type Elements struct {
	SemiMajorAxis          float64
	Eccentricity           float64
	Inclination            float64
	ArgumentOfPeriapsis    float64
	LongitudeAscendingNode float64
	TrueAnomaly            float64
}

// Valid reports whether the elements describe a closed orbit the analytic propagator can follow
func (e Elements) Valid() bool {
	return e.SemiMajorAxis > 0 && e.Eccentricity >= 0 && e.Eccentricity < 1
}

// Scaled returns a copy with the length element multiplied by factor
func (e Elements) Scaled(factor float64) Elements {
	e.SemiMajorAxis *= factor
	return e
}
