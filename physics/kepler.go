package physics

import (
	"math"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/constant"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// KeplerSolution reports how the Newton-Raphson solve went
type KeplerSolution struct {
	Iterations int
	Converged  bool
}

// SolveKepler solves M = E - e*sin(E) for the eccentric anomaly E
// Newton-Raphson with tolerance 1e-9 and a 100 iteration cap; when the cap is hit the last
// iterate is returned with Converged=false
func SolveKepler(meanAnomaly, e float64) (float64, KeplerSolution) {
	E := meanAnomaly
	if e > constant.KeplerHighEccentricity {
		E = math.Pi
	}

	for i := 0; i < constant.KeplerMaxIterations; i++ {
		delta := E - e*math.Sin(E) - meanAnomaly
		if math.Abs(delta) < constant.KeplerTolerance {
			return E, KeplerSolution{Iterations: i, Converged: true}
		}
		E -= delta / (1 - e*math.Cos(E))
	}

	residual := E - e*math.Sin(E) - meanAnomaly
	return E, KeplerSolution{
		Iterations: constant.KeplerMaxIterations,
		Converged:  math.Abs(residual) < constant.KeplerTolerance,
	}
}

// MeanMotion returns n = sqrt(mu/a³)
func MeanMotion(a, mu float64) float64 {
	return math.Sqrt(mu / (a * a * a))
}

// OrbitalPeriod returns 2π/n for a closed orbit
func OrbitalPeriod(a, mu float64) float64 {
	return vmath.TwoPi / MeanMotion(a, mu)
}

// TrueToEccentric converts true anomaly to eccentric anomaly (elliptic only)
// atan2 form stays finite at ν = π where the tan half-angle form blows up
func TrueToEccentric(nu, e float64) float64 {
	return 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(nu/2), math.Sqrt(1+e)*math.Cos(nu/2))
}

// EccentricToTrue converts eccentric anomaly to true anomaly in [0, 2π)
func EccentricToTrue(E, e float64) float64 {
	return vmath.NormalizeRadians(2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2)))
}

// Propagate advances closed-orbit elements by dt without force summation
// Only the true anomaly changes; negative dt rewinds
func Propagate(el component.Elements, mu, dt float64) (component.Elements, KeplerSolution) {
	e := el.Eccentricity
	n := MeanMotion(el.SemiMajorAxis, mu)

	E0 := TrueToEccentric(el.TrueAnomaly, e)
	M0 := E0 - e*math.Sin(E0)
	M := vmath.NormalizeRadians(M0 + n*dt)

	E, sol := SolveKepler(M, e)
	el.TrueAnomaly = EccentricToTrue(E, e)
	return el, sol
}

// StateFromElements returns position and velocity in the parent frame
// Perifocal state rotated by argument of periapsis, inclination and ascending node
func StateFromElements(el component.Elements, mu float64) (vmath.Vec3, vmath.Vec3) {
	a, e, nu := el.SemiMajorAxis, el.Eccentricity, el.TrueAnomaly

	p := a * (1 - e*e)
	cosNu, sinNu := math.Cos(nu), math.Sin(nu)
	r := p / (1 + e*cosNu)

	xo, yo := r*cosNu, r*sinNu
	vf := math.Sqrt(mu / p)
	vxo, vyo := -vf*sinNu, vf*(e+cosNu)

	cosO, sinO := math.Cos(el.LongitudeAscendingNode), math.Sin(el.LongitudeAscendingNode)
	cosI, sinI := math.Cos(el.Inclination), math.Sin(el.Inclination)
	cosW, sinW := math.Cos(el.ArgumentOfPeriapsis), math.Sin(el.ArgumentOfPeriapsis)

	r11 := cosO*cosW - sinO*sinW*cosI
	r12 := -cosO*sinW - sinO*cosW*cosI
	r21 := sinO*cosW + cosO*sinW*cosI
	r22 := -sinO*sinW + cosO*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	pos := vmath.Vec3{
		X: r11*xo + r12*yo,
		Y: r21*xo + r22*yo,
		Z: r31*xo + r32*yo,
	}
	vel := vmath.Vec3{
		X: r11*vxo + r12*vyo,
		Y: r21*vxo + r22*vyo,
		Z: r31*vxo + r32*vyo,
	}
	return pos, vel
}
