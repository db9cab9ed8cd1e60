package component

import "github.com/lixenwraith/vi-orbit/vmath"

// BodyID is a stable identifier assigned by the registry
// IDs are never reused within a registry lifetime, so a stale ID resolves to "not found"
type BodyID uint64

// NoBody marks an absent reference (no parent)
const NoBody BodyID = 0

// Kind selects the collection a body lives in
type Kind uint8

const (
	// Celestial bodies are gravitational sources (stars, planets, moons)
	Celestial Kind = iota
	// Orbital bodies are passive or thrust-capable secondaries (craft, probes)
	Orbital
)

// String returns the kind name used in logs and save files
func (k Kind) String() string {
	switch k {
	case Celestial:
		return "Celestial"
	case Orbital:
		return "Orbital"
	default:
		return "Unknown"
	}
}

// Propagation selects how a body is advanced each substep
type Propagation uint8

const (
	// Numeric bodies are integrated with RK4 against the celestial snapshot
	Numeric Propagation = iota
	// Analytic bodies follow their Keplerian elements around the parent
	Analytic
)

func (p Propagation) String() string {
	if p == Analytic {
		return "Analytic"
	}
	return "Numeric"
}

// Body is the simulated entity
// Parent is a weak link resolved through the registry; it may point at a removed body
type Body struct {
	ID   BodyID
	Name string
	Kind Kind

	Position vmath.Vec3
	Velocity vmath.Vec3
	// Thrust is an applied force in newtons, only honoured for Orbital bodies
	Thrust vmath.Vec3

	Mass   float64
	Radius float64

	Parent BodyID

	Elements    Elements
	HasElements bool
	Propagation Propagation
}

// IsCelestial reports whether the body is a gravitational source
func (b *Body) IsCelestial() bool {
	return b.Kind == Celestial
}

// HasThrust reports whether a thrust impulse applies to this body
func (b *Body) HasThrust() bool {
	return b.Kind == Orbital && !vmath.V3IsZero(b.Thrust)
}
