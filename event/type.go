package event

// Type identifies a simulation command
type Type int

const (
	// SetSpeed sets simulated seconds per real second
	// Payload: Speed (clamped to [0, MaxSpeed])
	SetSpeed Type = iota

	// SpeedUp moves to the next preset speed above the current one
	// Payload: none
	SpeedUp

	// SpeedDown moves to the next preset speed below the current one
	// Payload: none
	SpeedDown

	// SetUnits switches the length unit and rescales stored state
	// Payload: Units ("m" or "km")
	SetUnits

	// Save writes the registry to a file
	// Payload: Path (empty uses the configured save file), Reply optional
	Save

	// Load replaces the registry from a file
	// Payload: Path (empty uses the configured save file), Reply optional
	Load
)

var typeNames = map[Type]string{
	SetSpeed:  "set_speed",
	SpeedUp:   "speed_up",
	SpeedDown: "speed_down",
	SetUnits:  "set_units",
	Save:      "save",
	Load:      "load",
}

// String returns the wire name used by the control channel
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType resolves a wire name to a Type
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}
