package physics

import (
	"math"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// Thresholds below which the node line or periapsis direction is undefined
const (
	equatorialEpsilon = 1e-11
	circularEpsilon   = 1e-10
)

// ElementsFromState derives osculating elements from parent-relative state
// r, v: position and velocity relative to the parent
// mu: G*M of the parent
// Equatorial orbits take Ω = 0 and measure ω from the x axis; circular orbits take ω = 0 and
// measure ν from the node line (or x axis), so StateFromElements reproduces the input.
func ElementsFromState(r, v vmath.Vec3, mu float64) component.Elements {
	var el component.Elements

	rMag := vmath.V3Mag(r)
	h := vmath.V3Cross(r, v)
	hMag := vmath.V3Mag(h)

	eVec := vmath.V3Sub(vmath.V3Scale(vmath.V3Cross(v, h), 1/mu), vmath.V3Scale(r, 1/rMag))
	eMag := vmath.V3Mag(eVec)
	el.Eccentricity = eMag

	energy := SpecificEnergy(r, v, mu)
	el.SemiMajorAxis = -mu / (2 * energy)

	el.Inclination = vmath.AcosClamped(h.Z / hMag)

	n := vmath.Vec3{X: -h.Y, Y: h.X}
	nMag := vmath.V3Mag(n)
	retrograde := h.Z < 0
	equatorial := nMag <= equatorialEpsilon*hMag
	circular := eMag < circularEpsilon

	switch {
	case !equatorial && !circular:
		el.LongitudeAscendingNode = vmath.NormalizeRadians(math.Atan2(n.Y, n.X))

		el.ArgumentOfPeriapsis = vmath.AcosClamped(vmath.V3Dot(n, eVec) / (nMag * eMag))
		if eVec.Z < 0 {
			el.ArgumentOfPeriapsis = vmath.TwoPi - el.ArgumentOfPeriapsis
		}

		el.TrueAnomaly = trueAnomaly(r, v, eVec, rMag, eMag)

	case !equatorial && circular:
		el.LongitudeAscendingNode = vmath.NormalizeRadians(math.Atan2(n.Y, n.X))
		// Argument of latitude stands in for ν
		u := vmath.AcosClamped(vmath.V3Dot(n, r) / (nMag * rMag))
		if r.Z < 0 {
			u = vmath.TwoPi - u
		}
		el.TrueAnomaly = vmath.NormalizeRadians(u)

	case equatorial && !circular:
		w := vmath.NormalizeRadians(math.Atan2(eVec.Y, eVec.X))
		if retrograde {
			w = vmath.TwoPi - w
		}
		el.ArgumentOfPeriapsis = vmath.NormalizeRadians(w)
		el.TrueAnomaly = trueAnomaly(r, v, eVec, rMag, eMag)

	default:
		// True longitude stands in for ν
		l := vmath.NormalizeRadians(math.Atan2(r.Y, r.X))
		if retrograde {
			l = vmath.TwoPi - l
		}
		el.TrueAnomaly = vmath.NormalizeRadians(l)
	}

	return el
}

func trueAnomaly(r, v, eVec vmath.Vec3, rMag, eMag float64) float64 {
	nu := vmath.AcosClamped(vmath.V3Dot(eVec, r) / (eMag * rMag))
	if vmath.V3Dot(r, v) < 0 {
		nu = vmath.TwoPi - nu
	}
	return vmath.NormalizeRadians(nu)
}
