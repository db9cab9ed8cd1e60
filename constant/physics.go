package constant

// Gravitational constants, one per length unit
// The constant is converted, positions never are
const (
	// GMeters is G in m^3 kg^-1 s^-2
	GMeters = 6.67430e-11
	// GKilometers is G in km^3 kg^-1 s^-2
	GKilometers = 6.67430e-20

	// MetersPerKilometer scales stored state when the active unit changes
	MetersPerKilometer = 1000.0
)

// Kepler solver limits
const (
	KeplerTolerance     = 1e-9
	KeplerMaxIterations = 100

	// KeplerHighEccentricity switches the Newton starting guess from M to π
	KeplerHighEccentricity = 0.8
)
