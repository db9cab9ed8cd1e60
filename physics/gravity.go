package physics

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// Acceleration returns gravitational acceleration on a subject
// r: separation vector from the attracting body to the subject
// mu: G*M of the attracting body in the active unit
// Panics on zero separation, coincident bodies are a data error
func Acceleration(r vmath.Vec3, mu float64) vmath.Vec3 {
	dist := vmath.V3Mag(r)
	if dist == 0 {
		panic(fmt.Errorf("physics: zero separation in gravitational acceleration"))
	}
	return vmath.V3Scale(r, -mu/(dist*dist*dist))
}

// TotalAcceleration sums pairwise acceleration on subject at pos from every other body
// Returns the acceleration and the ID of the dominant attractor: the body producing the
// largest acceleration among those heavier than the subject. Ties keep the first seen.
func TotalAcceleration(pos vmath.Vec3, subject *component.Body, others []component.Body, units Units) (vmath.Vec3, component.BodyID) {
	var acc vmath.Vec3
	parent := component.NoBody
	top := 0.0

	for i := range others {
		other := &others[i]
		if other.ID == subject.ID {
			continue
		}

		a := Acceleration(vmath.V3Sub(pos, other.Position), units.Mu(other.Mass))
		acc = vmath.V3Add(acc, a)

		if strength := vmath.V3Mag(a); strength > top && subject.Mass < other.Mass {
			top = strength
			parent = other.ID
		}
	}

	return acc, parent
}

// SpecificEnergy returns orbital energy per unit mass relative to a parent
func SpecificEnergy(r, v vmath.Vec3, mu float64) float64 {
	return vmath.V3MagSq(v)/2 - mu/vmath.V3Mag(r)
}

// CircularVelocity returns the speed of a circular orbit at distance r
func CircularVelocity(r, mu float64) float64 {
	if r <= 0 {
		return 0
	}
	return math.Sqrt(mu / r)
}
